package production

import "errors"

var (
	ErrMachineKind     = errors.New("production: machine cannot record this step")
	ErrMachineInactive = errors.New("production: machine is inactive")
)
