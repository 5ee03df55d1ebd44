package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventStream writes Server-Sent Events.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func startEventStream(w http.ResponseWriter) (*eventStream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	es := &eventStream{w: w, rc: http.NewResponseController(w)}
	if err := es.rc.Flush(); err != nil {
		return nil, err
	}
	return es, nil
}

// send writes one event with a JSON payload and flushes it.
func (es *eventStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(es.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return es.rc.Flush()
}
