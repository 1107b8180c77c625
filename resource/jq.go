package resource

import (
	"github.com/itchyny/gojq"

	"github.com/crystian/declincus/faults"
)

// FilterJQ runs a jq expression over an already-decoded value. Used by the
// diff command to let callers slice reconciliation output.
func FilterJQ(input any, expression string) (any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "invalid jq expression", err)
	}
	iter := query.Run(input)

	var results []any
	for {
		value, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := value.(error); ok {
			return nil, faults.NewTypedError(faults.ValidationError, "jq evaluation failed", err)
		}
		results = append(results, value)
	}

	if len(results) == 0 {
		return nil, nil
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}
