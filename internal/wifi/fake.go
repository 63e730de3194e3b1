package wifi

// FakeCounter is a test double with a settable station count.
type FakeCounter struct {
	// N is the station count to return.
	N int

	// Err, if set, is returned by Stations.
	Err error

	// Calls tracks how many times Stations was invoked.
	Calls int
}

// Stations returns the configured count or error.
func (f *FakeCounter) Stations() (int, error) {
	f.Calls++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.N, nil
}
