// Package control keeps an interactive splat viewer at its desired frame
// rate.
//
// A Controller times every frame and feeds the measured cost back to the
// model as a multiplicative level-of-detail correction. Between
// interactions it refines the model step by step until no more detail is
// available:
//
//	Interacting -> Settling -> Refining -> Idle
//
// Any pointer, key or scroll input returns to Interacting. The host loop
// calls Redraw when a redraw was requested and Idle otherwise; Idle reports
// true once there is nothing left to do.
//
// Long frames poll Abort, which becomes true once the frame has run past
// its deadline and queued input is waiting. Input posted from event
// callbacks during a frame is queued and handled after it.
package control
