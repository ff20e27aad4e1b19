package observer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/jsonutil"
	"github.com/ourovoros-io/dyno/internal/model"
)

const (
	prefixStart = "/dyno start "
	prefixStop  = "/dyno stop "
	prefixInfo  = "/dyno info "
)

// classify implements the in-band phase protocol: lines are matched by
// literal prefix after trimming, and either open a
// phase, close the most recently opened still-open phase of that name
// (LIFO among open phases), or replace asmInfo. Any other line is
// ignored.
func classify(line string, epoch time.Time, phases *[]model.BenchmarkPhase, asmInfo *json.RawMessage) error {
	switch {
	case strings.HasPrefix(line, prefixStart):
		name := strings.TrimSpace(strings.TrimPrefix(line, prefixStart))
		now := elapsedMillis(epoch, time.Now())
		*phases = append(*phases, model.BenchmarkPhase{Name: name, StartTime: now})

	case strings.HasPrefix(line, prefixStop):
		name := strings.TrimSpace(strings.TrimPrefix(line, prefixStop))
		now := elapsedMillis(epoch, time.Now())

		idx := -1
		for i := len(*phases) - 1; i >= 0; i-- {
			if (*phases)[i].Name == name && (*phases)[i].EndTime == nil {
				idx = i
				break
			}
		}
		if idx == -1 {
			return errstack.Newf("failed to find phase %q", name)
		}
		t := now
		(*phases)[idx].EndTime = &t

	case strings.HasPrefix(line, prefixInfo):
		payload := strings.TrimSpace(strings.TrimPrefix(line, prefixInfo))
		if json.Valid([]byte(payload)) {
			*asmInfo = json.RawMessage(payload)
			return nil
		}
		raw, err := jsonutil.ExtractValue(payload)
		if err != nil {
			return errstack.Wrapf(err, "parsing /dyno info payload %q", payload)
		}
		*asmInfo = raw
	}

	return nil
}
