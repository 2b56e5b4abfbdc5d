package cpu

// runToCompletion repeatedly ticks with no host events until the program
// ends, treating a PRESENT yield as "keep going" rather than waiting for a
// host frame. Used to drive the window-close and end shutdown procedures,
// which are expected to run straight through rather than cooperate with
// the normal per-frame cadence.
func (c *CPU) runToCompletion() (TickResult, error) {
	for {
		res, err := c.ExecuteTick(nil)
		if err != nil {
			return res, err
		}
		if res.ProgramEnd {
			return res, nil
		}
	}
}

// WindowClosed runs the registered window-close procedure to completion,
// then the ending procedure to completion. Either step is skipped if its
// procedure address was never registered (noProc).
func (c *CPU) WindowClosed() (TickResult, error) {
	if c.windowProc != noProc {
		c.pc = c.windowProc
		if _, err := c.runToCompletion(); err != nil {
			return TickResult{ProgramEnd: true, ReturnValue: -1}, err
		}
	}
	return c.End()
}

// End runs the registered ending procedure to completion, or is a no-op if
// none was registered.
func (c *CPU) End() (TickResult, error) {
	if c.endingProc == noProc {
		return TickResult{ProgramEnd: true, ReturnValue: int(c.a)}, nil
	}
	c.pc = c.endingProc
	return c.runToCompletion()
}
