// Package schema holds the canonical per-datatype column order (spec §6)
// and resolves an effective schema from a datatype, a binary-column
// encoding, and optional include/exclude column lists (spec §4.2).
//
// The resolver follows the teacher's internal/config.Config pattern of
// keeping order-sensitive data in a slice rather than a Go map — maps do
// not preserve insertion order, and column order is part of the contract
// (spec §9, "Schema as ordered mapping").
package schema

import (
	"fmt"

	"github.com/dmagro/cryo-go/internal/types"
)

// canonical returns the full, canonical-order schema for a datatype before
// any include/exclude projection. Each column carries its *logical* type
// (TypeBytes vs TypeU256 etc.), which never changes with encoding; Resolve
// does not re-type any column. How bytes are serialized (Binary vs Hex) is
// decided by the writers from the ColumnEncoding they are given, not
// recorded in the schema.
func canonical(dt types.Datatype) (types.Schema, error) {
	switch dt {
	case types.Blocks:
		return types.Schema{
			{Name: "block_number", Type: types.TypeUint64},
			{Name: "block_hash", Type: types.TypeBytes},
			{Name: "parent_hash", Type: types.TypeBytes},
			{Name: "timestamp", Type: types.TypeUint32},
			{Name: "author", Type: types.TypeBytes},
			{Name: "gas_used", Type: types.TypeUint64},
			{Name: "extra_data", Type: types.TypeBytes},
			{Name: "base_fee_per_gas", Type: types.TypeUint64, Nullable: true},
			{Name: "size", Type: types.TypeUint64},
			{Name: "transaction_count", Type: types.TypeUint32},
			{Name: "logs_bloom", Type: types.TypeBytes},
		}, nil
	case types.Transactions:
		return types.Schema{
			{Name: "block_number", Type: types.TypeUint64},
			{Name: "transaction_index", Type: types.TypeUint32},
			{Name: "transaction_hash", Type: types.TypeBytes},
			{Name: "nonce", Type: types.TypeUint64},
			{Name: "from_address", Type: types.TypeBytes},
			{Name: "to_address", Type: types.TypeBytes, Nullable: true},
			{Name: "value", Type: types.TypeU256},
			{Name: "input", Type: types.TypeBytes},
			{Name: "gas_limit", Type: types.TypeUint64},
			{Name: "gas_price", Type: types.TypeUint64, Nullable: true},
			{Name: "transaction_type", Type: types.TypeUint8, Nullable: true},
			{Name: "max_priority_fee_per_gas", Type: types.TypeUint64, Nullable: true},
			{Name: "max_fee_per_gas", Type: types.TypeUint64, Nullable: true},
			{Name: "chain_id", Type: types.TypeUint64, Nullable: true},
		}, nil
	case types.Logs:
		return types.Schema{
			{Name: "block_number", Type: types.TypeUint64},
			{Name: "block_hash", Type: types.TypeBytes},
			{Name: "transaction_hash", Type: types.TypeBytes},
			{Name: "transaction_index", Type: types.TypeUint32},
			{Name: "log_index", Type: types.TypeUint32},
			{Name: "address", Type: types.TypeBytes},
			{Name: "topic0", Type: types.TypeBytes, Nullable: true},
			{Name: "topic1", Type: types.TypeBytes, Nullable: true},
			{Name: "topic2", Type: types.TypeBytes, Nullable: true},
			{Name: "topic3", Type: types.TypeBytes, Nullable: true},
			{Name: "data", Type: types.TypeBytes},
		}, nil
	default:
		return nil, fmt.Errorf("unknown datatype %v", dt)
	}
}

// DefaultSort returns the default sort-key order for a datatype (spec
// §3, "Sort keys ... A default is provided per datatype").
func DefaultSort(dt types.Datatype) ([]string, error) {
	switch dt {
	case types.Blocks:
		return []string{"block_number"}, nil
	case types.Transactions:
		return []string{"block_number", "transaction_index"}, nil
	case types.Logs:
		return []string{"block_number", "log_index"}, nil
	default:
		return nil, fmt.Errorf("unknown datatype %v", dt)
	}
}

// RowIdentity returns the canonical tiebreaker columns for a datatype
// (spec §4.5: "the canonical row identity per datatype ... is appended as
// a final tiebreaker").
func RowIdentity(dt types.Datatype) ([]string, error) {
	return DefaultSort(dt)
}

// Resolve builds the effective schema for a datatype: start from the
// canonical order, drop excluded columns, then (if include is non-nil,
// even when empty) restrict to included columns, preserving canonical order throughout
// (spec §4.2). encoding is accepted for symmetry with the spec's
// description of the resolver's inputs, even though this Go port does not
// need to mutate column types for it (see the canonical() doc comment).
func Resolve(dt types.Datatype, encoding types.ColumnEncoding, include, exclude []string) (types.Schema, error) {
	full, err := canonical(dt)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(full))
	for _, c := range full {
		known[c.Name] = true
	}
	for _, name := range include {
		if !known[name] {
			return nil, fmt.Errorf("unknown include column %q for datatype %s", name, dt)
		}
	}
	for _, name := range exclude {
		if !known[name] {
			return nil, fmt.Errorf("unknown exclude column %q for datatype %s", name, dt)
		}
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	// include != nil (as opposed to len(include) > 0) is the presence
	// signal: a caller that explicitly passes an empty include list is
	// asking for "no columns", which is a configuration error once the
	// projection below empties the result (spec §8: "Empty include list
	// is rejected"). A nil include means "no include filter at all".
	var included map[string]bool
	if include != nil {
		included = make(map[string]bool, len(include))
		for _, name := range include {
			included[name] = true
		}
	}

	result := make(types.Schema, 0, len(full))
	for _, col := range full {
		if excluded[col.Name] {
			continue
		}
		if included != nil && !included[col.Name] {
			continue
		}
		result = append(result, col)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("effective schema for datatype %s is empty after include/exclude projection", dt)
	}
	return result, nil
}
