package events_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_SendAcquireRelease(t *testing.T) {
	t.Log("Given the need to fan out events to registered receivers.")
	{
		evts := events.New[string]()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if dropped := evts.Send("block:added"); dropped != 0 {
			t.Fatalf("\t%s\tShould be able to send without dropping: %d", failed, dropped)
		}
		t.Logf("\t%s\tShould be able to send without dropping.", success)

		for i, ch := range []<-chan string{ch1, ch2} {
			if v := <-ch; v != "block:added" {
				t.Fatalf("\t%s\tShould receive the event on channel %d: got %q", failed, i, v)
			}
		}
		t.Logf("\t%s\tShould receive the event on every channel.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a channel: %v", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould have the released channel closed.", failed)
		}
		t.Logf("\t%s\tShould have the released channel closed.", success)

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould fail to release an unknown id.", failed)
		}
		t.Logf("\t%s\tShould fail to release an unknown id.", success)

		evts.Shutdown()
		if _, open := <-ch2; open {
			t.Fatalf("\t%s\tShould have all channels closed on shutdown.", failed)
		}
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould have no receivers after shutdown.", failed)
		}
		t.Logf("\t%s\tShould have all channels closed on shutdown.", success)
	}
}

func Test_SendNeverBlocks(t *testing.T) {
	t.Log("Given the need to never block the sender on a slow receiver.")
	{
		evts := events.New[int]()
		evts.Acquire("slow")

		var dropped int
		for i := 0; i < 150; i++ {
			dropped += evts.Send(i)
		}

		if dropped != 50 {
			t.Logf("\t%s\tgot: %d", failed, dropped)
			t.Logf("\t%s\texp: %d", failed, 50)
			t.Fatalf("\t%s\tShould drop events beyond the buffer.", failed)
		}
		t.Logf("\t%s\tShould drop events beyond the buffer.", success)
	}
}
