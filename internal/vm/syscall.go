package vm

import "github.com/kolkov/neoc/internal/types"

// Standard syscall names.
const (
	SyscallNotify  = "System.Runtime.Notify"
	SyscallLog     = "System.Runtime.Log"
	SyscallGetTime = "System.Runtime.GetTime"
)

// FixedTime is the value returned by System.Runtime.GetTime.
// A constant keeps runs reproducible.
const FixedTime = 1_468_595_301

func (vm *VM) registerStandardSyscalls() {
	vm.Register(SyscallNotify, func(vm *VM) error {
		item, err := vm.Pop()
		if err != nil {
			return err
		}
		vm.notifications = append(vm.notifications, item)
		return nil
	})
	vm.Register(SyscallLog, func(vm *VM) error {
		item, err := vm.Pop()
		if err != nil {
			return err
		}
		msg, err := item.Bytes()
		if err != nil {
			return err
		}
		vm.logs = append(vm.logs, string(msg))
		return nil
	})
	vm.Register(SyscallGetTime, func(vm *VM) error {
		vm.Push(types.Int(FixedTime))
		return nil
	})
}
