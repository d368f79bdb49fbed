package httpapi

import "net/http"

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	st, _ := StudentFrom(r.Context())
	WriteJSON(w, http.StatusOK, st)
}

// myJobs filters the current snapshot to the student's course.
func (s *server) myJobs(w http.ResponseWriter, r *http.Request) {
	st, _ := StudentFrom(r.Context())
	snap := s.cache.Get()
	WriteJSON(w, http.StatusOK, s.classify.Filter(snap.Records, st.Course))
}
