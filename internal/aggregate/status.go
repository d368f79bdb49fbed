package aggregate

// Status reports the outcome of the most recent refresh.
type Status struct {
	LastRunAt        string   `json:"last_run_at"`
	LastOkAt         string   `json:"last_ok_at"`
	LastError        string   `json:"last_error"`
	LastCount        int      `json:"last_count"`
	FailedCategories []string `json:"failed_categories"`
	Running          bool     `json:"running"`
}

func (a *Aggregator) Status() Status {
	st := *a.status.Load()
	st.FailedCategories = append([]string{}, st.FailedCategories...)
	st.Running = a.cache.Busy()
	return st
}
