package aml

// registerPredefinedMethods installs the host-implemented methods AML
// control methods expect to be able to call even though no DSDT/SSDT ever
// defines them -- \_OSI being the practically important one, since almost
// every real DSDT probes it before deciding which code path to take.
func registerPredefinedMethods(vm *VM) {
	osi := vm.ns.Add(vm.ns.root, NewName("_OSI"), KindMethod)
	osi.payload = &MethodData{
		ArgCount: 1,
		Native:   nativeOSI,
	}
}

// nativeOSI implements \_OSI("Some Feature Name"): returns Ones if the
// queried string is present in the VM's configured OS capability set, Zero
// otherwise.
func nativeOSI(vm *VM, args []*Object) (*Object, *Error) {
	if len(args) != 1 {
		return nil, newError(ExcMethodLimit, "_OSI takes exactly one argument")
	}
	strObj, aerr := vm.toStringObj(args[0])
	if aerr != nil {
		return nil, aerr
	}
	s, _ := strObj.payload.(string)
	if vm.osCapabilities[s] {
		return vm.newInteger(maskForWidth(vm.sizeOfIntInBits)), nil
	}
	return vm.newInteger(0), nil
}
