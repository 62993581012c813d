package jsqps

// scheduler.go holds the processor-sharing server used by the simulation.
//
// A server of unit capacity shared equally among its n jobs gives each of them
// service at rate 1/n.  Rather than decrementing every residual requirement at
// every event, the server keeps a virtual clock: the service attained by any one
// job since the server started.  A job admitted when the virtual clock reads v with
// requirement w completes when the virtual clock reaches v+w, so the jobs sit in a
// min-heap keyed by that finish value and only the head ever needs a completion event.
//
// Whenever the occupancy changes the pending completion event is superseded: the
// server bumps its epoch and schedules a fresh event carrying the new epoch, and a
// completion event whose epoch is stale is ignored when it fires.

import (
	"container/heap"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"math"
)

// job describes one customer of the farm
type job struct {
	id      int
	arrival float64 // real arrival time
	finish  float64 // virtual time at which its requirement is met
}

// finishHeap and its methods implement a min-priority heap
// on the virtual finish times of jobs
type finishHeap []*job

func (h finishHeap) Len() int           { return len(h) }
func (h finishHeap) Less(i, j int) bool { return h[i].finish < h[j].finish }
func (h finishHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *finishHeap) Push(x any) {
	*h = append(*h, x.(*job))
}

func (h *finishHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// psServer holds the state of one processor-sharing server
type psServer struct {
	idx       int        // position in the farm
	virtual   float64    // attained service per job
	updated   float64    // real time at which virtual was last advanced
	epoch     int        // identifies the completion event currently in force
	inservice finishHeap // every job present, all served concurrently

	// called with the departing job and the departure time
	onDepart func(*job, float64)
}

// createPSServer is a constructor
func createPSServer(idx int, onDepart func(*job, float64)) *psServer {
	ps := new(psServer)
	ps.idx = idx
	ps.inservice = []*job{}
	ps.onDepart = onDepart
	heap.Init(&ps.inservice)
	return ps
}

// occupancy returns the number of jobs present
func (ps *psServer) occupancy() int {
	return len(ps.inservice)
}

// advance brings the virtual clock forward to real time now
func (ps *psServer) advance(now float64) {
	if n := len(ps.inservice); n > 0 {
		ps.virtual += (now - ps.updated) / float64(n)
	}
	ps.updated = now
}

// admit puts a job with service requirement work into service
func (ps *psServer) admit(evtMgr *evtm.EventManager, jb *job, work float64) {
	ps.advance(evtMgr.CurrentSeconds())
	jb.finish = ps.virtual + work
	heap.Push(&ps.inservice, jb)
	ps.reschedule(evtMgr)
}

// reschedule supersedes any pending completion event and, if the server is busy,
// schedules the completion of the job with the smallest finish value
func (ps *psServer) reschedule(evtMgr *evtm.EventManager) {
	ps.epoch++
	n := len(ps.inservice)
	if n == 0 {
		return
	}
	delay := math.Max((ps.inservice[0].finish-ps.virtual)*float64(n), 0.0)
	evtMgr.Schedule(ps, ps.epoch, serviceComplete, vrtime.SecondsToTime(delay))
}

// serviceComplete is called when the head job's requirement is met, unless
// the event has been superseded in the meantime
func serviceComplete(evtMgr *evtm.EventManager, context any, data any) any {
	ps := context.(*psServer)
	if data.(int) != ps.epoch {
		return nil
	}

	now := evtMgr.CurrentSeconds()
	ps.advance(now)
	jb := heap.Pop(&ps.inservice).(*job)
	ps.onDepart(jb, now)
	ps.reschedule(evtMgr)
	return nil
}
