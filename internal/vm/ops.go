package vm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/types"
)

var (
	errDivideByZero = errors.New("division by zero")
	errNotArray     = errors.New("item is not an array")
	errNotMap       = errors.New("item is not a map")
	errOutOfRange   = errors.New("index out of range")
	errMissingKey   = errors.New("key not found")
)

// maxShift bounds SHL/SHR operands.
const maxShift = 256

func (vm *VM) unary(op opcode.Opcode) error {
	x, err := vm.popInt()
	if err != nil {
		return err
	}
	r := new(big.Int)
	switch op {
	case opcode.INVERT:
		r.Not(x)
	case opcode.INC:
		r.Add(x, big.NewInt(1))
	case opcode.DEC:
		r.Sub(x, big.NewInt(1))
	case opcode.SIGN:
		r.SetInt64(int64(x.Sign()))
	case opcode.NEGATE:
		r.Neg(x)
	case opcode.ABS:
		r.Abs(x)
	case opcode.NZ:
		vm.push(types.Bool(x.Sign() != 0))
		return nil
	}
	vm.push(types.BigInt(r))
	return nil
}

func (vm *VM) binary(op opcode.Opcode) error {
	y, err := vm.popInt()
	if err != nil {
		return err
	}
	x, err := vm.popInt()
	if err != nil {
		return err
	}
	r := new(big.Int)
	switch op {
	case opcode.AND:
		r.And(x, y)
	case opcode.OR:
		r.Or(x, y)
	case opcode.XOR:
		r.Xor(x, y)
	case opcode.ADD:
		r.Add(x, y)
	case opcode.SUB:
		r.Sub(x, y)
	case opcode.MUL:
		r.Mul(x, y)
	case opcode.DIV:
		if y.Sign() == 0 {
			return errDivideByZero
		}
		r.Quo(x, y)
	case opcode.MOD:
		if y.Sign() == 0 {
			return errDivideByZero
		}
		r.Rem(x, y)
	case opcode.SHL, opcode.SHR:
		if !y.IsInt64() || y.Int64() < -maxShift || y.Int64() > maxShift {
			return fmt.Errorf("shift %s out of range", y)
		}
		shift := y.Int64()
		if op == opcode.SHR {
			shift = -shift
		}
		if shift >= 0 {
			r.Lsh(x, uint(shift))
		} else {
			r.Rsh(x, uint(-shift))
		}
	case opcode.NUMEQUAL:
		vm.push(types.Bool(x.Cmp(y) == 0))
		return nil
	case opcode.NUMNOTEQUAL:
		vm.push(types.Bool(x.Cmp(y) != 0))
		return nil
	case opcode.LT:
		vm.push(types.Bool(x.Cmp(y) < 0))
		return nil
	case opcode.GT:
		vm.push(types.Bool(x.Cmp(y) > 0))
		return nil
	case opcode.LTE:
		vm.push(types.Bool(x.Cmp(y) <= 0))
		return nil
	case opcode.GTE:
		vm.push(types.Bool(x.Cmp(y) >= 0))
		return nil
	case opcode.MIN:
		if x.Cmp(y) <= 0 {
			r.Set(x)
		} else {
			r.Set(y)
		}
	case opcode.MAX:
		if x.Cmp(y) >= 0 {
			r.Set(x)
		} else {
			r.Set(y)
		}
	}
	vm.push(types.BigInt(r))
	return nil
}

func (vm *VM) splice(op opcode.Opcode) error {
	switch op {
	case opcode.CAT:
		b, err := vm.popBytes()
		if err != nil {
			return err
		}
		a, err := vm.popBytes()
		if err != nil {
			return err
		}
		out := make([]byte, 0, len(a)+len(b))
		out = append(append(out, a...), b...)
		vm.push(types.Bytes(out))

	case opcode.SUBSTR:
		count, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		index, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		data, err := vm.popBytes()
		if err != nil {
			return err
		}
		if index < 0 || count < 0 {
			return errOutOfRange
		}
		if index > len(data) {
			index = len(data)
		}
		end := index + count
		if end > len(data) {
			end = len(data)
		}
		vm.push(types.Bytes(append([]byte{}, data[index:end]...)))

	case opcode.LEFT:
		count, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		data, err := vm.popBytes()
		if err != nil {
			return err
		}
		if count < 0 {
			return errOutOfRange
		}
		if count > len(data) {
			count = len(data)
		}
		vm.push(types.Bytes(append([]byte{}, data[:count]...)))

	case opcode.RIGHT:
		count, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		data, err := vm.popBytes()
		if err != nil {
			return err
		}
		if count < 0 || count > len(data) {
			return errOutOfRange
		}
		vm.push(types.Bytes(append([]byte{}, data[len(data)-count:]...)))

	case opcode.SIZE:
		data, err := vm.popBytes()
		if err != nil {
			return err
		}
		vm.push(types.Int(int64(len(data))))
	}
	return nil
}

func (vm *VM) collection(op opcode.Opcode) error {
	switch op {
	case opcode.ARRAYSIZE:
		if err := vm.need(1); err != nil {
			return err
		}
		item := vm.pop()
		switch item.Kind() {
		case types.KindArray, types.KindStruct:
			vm.push(types.Int(int64(len(item.Array().Items))))
		case types.KindMap:
			vm.push(types.Int(int64(item.Map().Len())))
		default:
			data, err := item.Bytes()
			if err != nil {
				return err
			}
			vm.push(types.Int(int64(len(data))))
		}

	case opcode.PACK:
		n, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		if n < 0 {
			return errOutOfRange
		}
		if err := vm.need(n); err != nil {
			return err
		}
		items := make([]types.Value, n)
		for i := 0; i < n; i++ {
			items[i] = vm.pop()
		}
		vm.push(types.NewArray(items))

	case opcode.UNPACK:
		if err := vm.need(1); err != nil {
			return err
		}
		arr := vm.pop()
		if arr.Array() == nil {
			return errNotArray
		}
		items := arr.Array().Items
		for i := len(items) - 1; i >= 0; i-- {
			vm.push(items[i])
		}
		vm.push(types.Int(int64(len(items))))

	case opcode.PICKITEM:
		if err := vm.need(2); err != nil {
			return err
		}
		key := vm.pop()
		coll := vm.pop()
		switch coll.Kind() {
		case types.KindArray, types.KindStruct:
			idx, err := arrayIndex(key, len(coll.Array().Items))
			if err != nil {
				return err
			}
			vm.push(coll.Array().Items[idx].Clone())
		case types.KindMap:
			v, ok, err := coll.Map().Get(key)
			if err != nil {
				return err
			}
			if !ok {
				return errMissingKey
			}
			vm.push(v.Clone())
		default:
			return errNotArray
		}

	case opcode.SETITEM:
		if err := vm.need(3); err != nil {
			return err
		}
		val := vm.pop().Clone()
		key := vm.pop()
		coll := vm.pop()
		switch coll.Kind() {
		case types.KindArray, types.KindStruct:
			idx, err := arrayIndex(key, len(coll.Array().Items))
			if err != nil {
				return err
			}
			coll.Array().Items[idx] = val
		case types.KindMap:
			return coll.Map().Set(key, val)
		default:
			return errNotArray
		}

	case opcode.NEWARRAY, opcode.NEWSTRUCT:
		n, err := vm.popSmallInt()
		if err != nil {
			return err
		}
		if n < 0 {
			return errOutOfRange
		}
		items := make([]types.Value, n)
		for i := range items {
			items[i] = types.Bool(false)
		}
		if op == opcode.NEWARRAY {
			vm.push(types.NewArray(items))
		} else {
			vm.push(types.NewStruct(items))
		}

	case opcode.NEWMAP:
		vm.push(types.NewMap())

	case opcode.APPEND:
		if err := vm.need(2); err != nil {
			return err
		}
		item := vm.pop().Clone()
		arr := vm.pop()
		if arr.Array() == nil {
			return errNotArray
		}
		arr.Array().Items = append(arr.Array().Items, item)

	case opcode.REVERSE:
		if err := vm.need(1); err != nil {
			return err
		}
		arr := vm.pop()
		if arr.Array() == nil {
			return errNotArray
		}
		items := arr.Array().Items
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}

	case opcode.REMOVE:
		if err := vm.need(2); err != nil {
			return err
		}
		key := vm.pop()
		coll := vm.pop()
		switch coll.Kind() {
		case types.KindArray, types.KindStruct:
			items := coll.Array().Items
			idx, err := arrayIndex(key, len(items))
			if err != nil {
				return err
			}
			coll.Array().Items = append(items[:idx], items[idx+1:]...)
		case types.KindMap:
			return coll.Map().Remove(key)
		default:
			return errNotArray
		}

	case opcode.HASKEY:
		if err := vm.need(2); err != nil {
			return err
		}
		key := vm.pop()
		coll := vm.pop()
		switch coll.Kind() {
		case types.KindArray, types.KindStruct:
			n, err := key.BigInt()
			if err != nil {
				return err
			}
			vm.push(types.Bool(n.Sign() >= 0 && n.Cmp(big.NewInt(int64(len(coll.Array().Items)))) < 0))
		case types.KindMap:
			_, ok, err := coll.Map().Get(key)
			if err != nil {
				return err
			}
			vm.push(types.Bool(ok))
		default:
			return errNotArray
		}

	case opcode.KEYS:
		if err := vm.need(1); err != nil {
			return err
		}
		m := vm.pop()
		if m.Map() == nil {
			return errNotMap
		}
		vm.push(types.NewArray(m.Map().Keys()))

	case opcode.VALUES:
		if err := vm.need(1); err != nil {
			return err
		}
		coll := vm.pop()
		var values []types.Value
		switch coll.Kind() {
		case types.KindArray, types.KindStruct:
			values = make([]types.Value, len(coll.Array().Items))
			for i, it := range coll.Array().Items {
				values[i] = it.Clone()
			}
		case types.KindMap:
			values = coll.Map().Values()
		default:
			return errNotArray
		}
		vm.push(types.NewArray(values))
	}
	return nil
}

func arrayIndex(key types.Value, size int) (int, error) {
	n, err := key.BigInt()
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(int64(size))) >= 0 {
		return 0, fmt.Errorf("%w: %s of %d", errOutOfRange, n, size)
	}
	return int(n.Int64()), nil
}
