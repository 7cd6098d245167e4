package slot

import "fmt"

func errNotFree(s State) error {
	return fmt.Errorf("slot: Request called on non-Free slot (state=%s)", s)
}

func errWrongState(s State) error {
	return fmt.Errorf("slot: operation not valid in state %s", s)
}

func errPrefixMismatch() error {
	return fmt.Errorf("slot: segment name does not share the slot's sample prefix")
}

func errNotPending(key string) error {
	return fmt.Errorf("slot: segment %q was never requested on this slot", key)
}
