package nativead

import "time"

// validateSchedule checks adApprove ops for a usable time slot: the
// resolved start_time must be in the future, respect the community's
// scheduling lead time, and the slot [start, start + time_units
// minutes] must not intersect any active campaign's slot. Intervals
// are closed on both ends, so touching boundaries count as overlap.
func (e *Engine) validateSchedule(t *Transition) error {
	if t.op.Action != ActionApprove {
		return nil
	}

	if t.state.TimeUnits <= 0 {
		return stateErrorf("cannot approve an ad that doesn't have time_units specified")
	}
	timeUnits := t.state.TimeUnits

	var start time.Time
	switch {
	case t.params.StartTime != nil:
		start = *t.params.StartTime
	case t.state.StartTime != nil:
		start = *t.state.StartTime
	default:
		return stateErrorf("cannot approve an ad that doesn't have start_time specified")
	}

	now := e.Now()
	if !start.After(now) {
		return complianceErrorf("provided start_time is not in the future")
	}
	if delay := t.settings.ScheduledDelay; delay > 0 {
		if start.Before(now.Add(time.Duration(delay) * time.Minute)) {
			return complianceErrorf("the community requires a scheduling lead time of (%d) minutes", delay)
		}
	}

	active, err := e.campaigns.ActiveCampaigns(t.op.CommunityID)
	if err != nil {
		return err
	}

	candStart := start.Unix()
	candEnd := candStart + int64(timeUnits)*60
	for _, st := range active {
		s, en, ok := activeInterval(st)
		if !ok {
			continue
		}
		if overlapsClosed(candStart, candEnd, s, en) {
			return complianceErrorf("time slot not available")
		}
	}

	return nil
}

// overlapsClosed reports closed-interval intersection: two intervals
// overlap unless one ends strictly before the other begins.
func overlapsClosed(aStart, aEnd, bStart, bEnd int64) bool {
	return aEnd >= bStart && bEnd >= aStart
}
