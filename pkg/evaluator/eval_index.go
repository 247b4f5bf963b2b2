package evaluator

import (
	"context"
	"fmt"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// evalSubscript evaluates obj[dim] and obj[dim, dim]. Integer indices follow
// Python conventions (negative counts from the end, out of range is an
// error); slices clamp their bounds and support negative steps.
func (e *Evaluator) evalSubscript(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (interface{}, error) {
	base, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}

	if node.RHS.Type == types.NodeExtSlice {
		arr, ok := base.(*ndarray.Array)
		if !ok || arr.NDim() != 2 {
			return nil, types.NewError(types.ErrIndexOutOfRange,
				"Multi-dimensional indexing requires a 2-D array", node.Position)
		}
		return e.evalExtSlice(ctx, arr, node.RHS, evalCtx, node.Position)
	}

	switch obj := base.(type) {
	case *ndarray.Array:
		return e.indexArray(ctx, obj, node.RHS, evalCtx, node.Position)
	case []interface{}:
		return e.indexList(ctx, obj, node.RHS, evalCtx, node.Position)
	default:
		return nil, types.NewError(types.ErrIndexOutOfRange,
			fmt.Sprintf("%s is not subscriptable", typeName(base)), node.Position)
	}
}

// indexArray applies a single index or slice to an array.
func (e *Evaluator) indexArray(ctx context.Context, arr *ndarray.Array, dim *types.ASTNode, evalCtx *EvalContext, pos int) (interface{}, error) {
	length := arr.Len()

	if dim.Type == types.NodeSlice {
		start, stop, step, err := e.resolveSlice(ctx, dim, evalCtx, length)
		if err != nil {
			return nil, err
		}
		idxs := sliceIndices(start, stop, step)
		if arr.NDim() == 2 {
			cols := arr.Shape[1]
			data := make([]float64, 0, len(idxs)*cols)
			for _, i := range idxs {
				data = append(data, arr.Row(i).Data...)
			}
			return ndarray.New(data, len(idxs), cols), nil
		}
		data := make([]float64, len(idxs))
		for k, i := range idxs {
			data[k] = arr.Data[i]
		}
		return ndarray.New(data, len(idxs)), nil
	}

	idxVal, err := e.evalNode(ctx, dim, evalCtx)
	if err != nil {
		return nil, err
	}
	i, err := asInt(idxVal)
	if err != nil {
		return nil, err
	}
	i, err = normalizeIndex(i, length, pos)
	if err != nil {
		return nil, err
	}
	if arr.NDim() == 2 {
		return arr.Row(i), nil
	}
	return arr.Data[i], nil
}

// indexList applies a single index or slice to a list.
func (e *Evaluator) indexList(ctx context.Context, items []interface{}, dim *types.ASTNode, evalCtx *EvalContext, pos int) (interface{}, error) {
	length := len(items)

	if dim.Type == types.NodeSlice {
		start, stop, step, err := e.resolveSlice(ctx, dim, evalCtx, length)
		if err != nil {
			return nil, err
		}
		idxs := sliceIndices(start, stop, step)
		out := make([]interface{}, len(idxs))
		for k, i := range idxs {
			out[k] = items[i]
		}
		return out, nil
	}

	idxVal, err := e.evalNode(ctx, dim, evalCtx)
	if err != nil {
		return nil, err
	}
	i, err := asInt(idxVal)
	if err != nil {
		return nil, err
	}
	i, err = normalizeIndex(i, length, pos)
	if err != nil {
		return nil, err
	}
	return items[i], nil
}

// evalExtSlice applies a two-dimensional subscript to a 2-D array. Each
// dimension is either an index (which collapses that axis) or a slice.
func (e *Evaluator) evalExtSlice(ctx context.Context, arr *ndarray.Array, ext *types.ASTNode, evalCtx *EvalContext, pos int) (interface{}, error) {
	if len(ext.Expressions) != 2 {
		return nil, types.NewError(types.ErrIndexOutOfRange,
			fmt.Sprintf("Expected 2 subscript dimensions, got %d", len(ext.Expressions)), pos)
	}

	rowDim, colDim := ext.Expressions[0], ext.Expressions[1]
	rows, rowIdx, err := e.resolveDim(ctx, rowDim, evalCtx, arr.Shape[0], pos)
	if err != nil {
		return nil, err
	}
	cols, colIdx, err := e.resolveDim(ctx, colDim, evalCtx, arr.Shape[1], pos)
	if err != nil {
		return nil, err
	}

	switch {
	case rowIdx >= 0 && colIdx >= 0:
		return arr.At2(rowIdx, colIdx), nil

	case rowIdx >= 0:
		data := make([]float64, len(cols))
		for k, j := range cols {
			data[k] = arr.At2(rowIdx, j)
		}
		return ndarray.New(data, len(cols)), nil

	case colIdx >= 0:
		data := make([]float64, len(rows))
		for k, i := range rows {
			data[k] = arr.At2(i, colIdx)
		}
		return ndarray.New(data, len(rows)), nil

	default:
		data := make([]float64, 0, len(rows)*len(cols))
		for _, i := range rows {
			for _, j := range cols {
				data = append(data, arr.At2(i, j))
			}
		}
		return ndarray.New(data, len(rows), len(cols)), nil
	}
}

// resolveDim resolves one subscript dimension against an axis of the given
// length. An index dimension returns (nil, index); a slice dimension returns
// (indices, -1).
func (e *Evaluator) resolveDim(ctx context.Context, dim *types.ASTNode, evalCtx *EvalContext, length, pos int) ([]int, int, error) {
	if dim.Type == types.NodeSlice {
		start, stop, step, err := e.resolveSlice(ctx, dim, evalCtx, length)
		if err != nil {
			return nil, -1, err
		}
		return sliceIndices(start, stop, step), -1, nil
	}

	v, err := e.evalNode(ctx, dim, evalCtx)
	if err != nil {
		return nil, -1, err
	}
	i, err := asInt(v)
	if err != nil {
		return nil, -1, err
	}
	i, err = normalizeIndex(i, length, pos)
	if err != nil {
		return nil, -1, err
	}
	return nil, i, nil
}

// resolveSlice evaluates slice bounds and normalizes them against an axis
// length using Python clamping rules.
func (e *Evaluator) resolveSlice(ctx context.Context, slice *types.ASTNode, evalCtx *EvalContext, length int) (start, stop, step int, err error) {
	step = 1
	if slice.Step != nil {
		v, evalErr := e.evalNode(ctx, slice.Step, evalCtx)
		if evalErr != nil {
			return 0, 0, 0, evalErr
		}
		step, err = asInt(v)
		if err != nil {
			return 0, 0, 0, err
		}
		if step == 0 {
			return 0, 0, 0, types.NewError(types.ErrIndexOutOfRange,
				"Slice step cannot be zero", slice.Position)
		}
	}

	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}

	if slice.Lower != nil {
		v, evalErr := e.evalNode(ctx, slice.Lower, evalCtx)
		if evalErr != nil {
			return 0, 0, 0, evalErr
		}
		i, convErr := asInt(v)
		if convErr != nil {
			return 0, 0, 0, convErr
		}
		start = clampBound(i, length, step)
	}
	if slice.Upper != nil {
		v, evalErr := e.evalNode(ctx, slice.Upper, evalCtx)
		if evalErr != nil {
			return 0, 0, 0, evalErr
		}
		i, convErr := asInt(v)
		if convErr != nil {
			return 0, 0, 0, convErr
		}
		stop = clampBound(i, length, step)
	}
	return start, stop, step, nil
}

// clampBound normalizes one slice bound the way Python does: negative bounds
// count from the end, and out-of-range bounds clamp rather than error. The
// valid range depends on the step direction: [0, length] for forward slices,
// [-1, length-1] for backward ones.
func clampBound(i, length, step int) int {
	if i < 0 {
		i += length
		if i < 0 {
			if step > 0 {
				return 0
			}
			return -1
		}
		return i
	}
	if step < 0 {
		if i >= length {
			return length - 1
		}
		return i
	}
	if i > length {
		return length
	}
	return i
}

// sliceIndices expands normalized slice bounds into the selected indices.
func sliceIndices(start, stop, step int) []int {
	var idxs []int
	if step > 0 {
		for i := start; i < stop; i += step {
			idxs = append(idxs, i)
		}
	} else {
		for i := start; i > stop; i += step {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// normalizeIndex converts a possibly negative index into a bounds-checked
// offset.
func normalizeIndex(i, length, pos int) (int, error) {
	orig := i
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, types.NewError(types.ErrIndexOutOfRange,
			fmt.Sprintf("Index %d is out of range for axis of length %d", orig, length), pos)
	}
	return i, nil
}
