package aml

// mutexStack tracks the mutexes a single execution context currently holds,
// enforcing the ACPI sync-level ordering rule and LIFO-only release order.
// Grounded in original_source/runtime/mutex.c's aml_mutex_stack_* family:
// an array-based stack plus a currentSyncLevel watermark.
type mutexStack struct {
	held             []*Object // KindMutex objects, in acquisition order
	currentSyncLevel uint8
}

// newMutexStack returns an empty stack (sync level 0, nothing held).
func newMutexStack() *mutexStack {
	return &mutexStack{}
}

// findAcquired reports the stack index of m if this context already holds
// it, or -1.
func (s *mutexStack) findAcquired(m *Object) int {
	for i, held := range s.held {
		if held == m {
			return i
		}
	}
	return -1
}

// Acquire attempts to acquire m (a KindMutex object) with the given
// timeout in milliseconds. Acquire never blocks: when m is held by another
// context, any timeout other than 0xFFFF returns ok=false with no error at
// once (AML callers check the boolean Acquire result), and a timeout of
// 0xFFFF returns an ExcMutexOrder error reporting the deadlock. A non-nil
// *Error is also returned when m is not a Mutex or when acquiring it would
// violate sync-level ordering.
//
// Mirrors aml_mutex_stack_acquire: re-entrant acquisition by the same
// context is a no-op; acquiring a mutex whose SyncLevel is lower than the
// current watermark is an ordering violation (AE_AML_MUTEX_ORDER) because
// it would let this context later release mutexes out of LIFO order.
func (s *mutexStack) Acquire(m *Object, timeout uint16) (ok bool, aerr *Error) {
	data, _ := m.payload.(*MutexData)
	if data == nil {
		return false, newError(ExcOperandType, "Acquire: not a Mutex")
	}

	if idx := s.findAcquired(m); idx >= 0 {
		data.state.acquireCnt++
		return true, nil
	}

	if len(s.held) > 0 && data.SyncLevel < s.currentSyncLevel {
		return false, newError(ExcMutexOrder, "Acquire: SyncLevel below current watermark")
	}

	if data.state.held {
		// Held by a different, still-live context; only a real scheduler
		// could block here. Without one, a non-infinite timeout reports
		// failure immediately and an infinite timeout is diagnosed as a
		// deadlock rather than hanging forever.
		if timeout == 0xffff {
			return false, newError(ExcMutexOrder, "Acquire: would deadlock waiting on held Mutex")
		}
		return false, nil
	}

	data.state.held = true
	data.state.acquireCnt = 1
	s.held = append(s.held, m)
	s.currentSyncLevel = data.SyncLevel
	return true, nil
}

// Release releases m, enforcing LIFO order: only the most recently
// acquired mutex still held by this context may be released next.
// Mirrors aml_mutex_stack_release.
func (s *mutexStack) Release(m *Object) *Error {
	data, _ := m.payload.(*MutexData)
	if data == nil {
		return newError(ExcOperandType, "Release: not a Mutex")
	}

	idx := s.findAcquired(m)
	if idx < 0 {
		return newError(ExcMutexNotAcquired, "Release: mutex not held by this context")
	}
	if idx != len(s.held)-1 {
		return newError(ExcMutexOrder, "Release: mutex released out of acquisition order")
	}

	data.state.acquireCnt--
	if data.state.acquireCnt > 0 {
		return nil
	}

	data.state.held = false
	s.held = s.held[:idx]
	if len(s.held) == 0 {
		s.currentSyncLevel = 0
	} else {
		top, _ := s.held[len(s.held)-1].payload.(*MutexData)
		s.currentSyncLevel = top.SyncLevel
	}
	return nil
}
