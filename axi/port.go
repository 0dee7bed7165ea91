package axi

import (
	"context"
	"log"
)

// ReadChannels bundles the AR and R channels of one read interface.
type ReadChannels struct {
	AR *Channel[AddrPayload]
	R  *Channel[ReadPayload]
}

// NewReadChannels creates the read channels of the interface called name.
func NewReadChannels(name string, depth int) ReadChannels {
	return ReadChannels{
		AR: NewChannel[AddrPayload](name+".AR", depth),
		R:  NewChannel[ReadPayload](name+".R", depth),
	}
}

// WriteChannels bundles the AW, W and B channels of one write interface.
type WriteChannels struct {
	AW *Channel[AddrPayload]
	W  *Channel[WritePayload]
	B  *Channel[WRespPayload]
}

// NewWriteChannels creates the write channels of the interface called name.
func NewWriteChannels(name string, depth int) WriteChannels {
	return WriteChannels{
		AW: NewChannel[AddrPayload](name+".AW", depth),
		W:  NewChannel[WritePayload](name+".W", depth),
		B:  NewChannel[WRespPayload](name+".B", depth),
	}
}

type resettable struct {
	name  string
	ready bool
}

func (r *resettable) mustBeReset() {
	if !r.ready {
		log.Panicf("axi: port %s used before Reset", r.name)
	}
}

// ReadMaster is the master side of a read interface.
type ReadMaster struct {
	resettable
	ch ReadChannels
}

// NewReadMaster creates the master side of the read channels.
func NewReadMaster(ch ReadChannels) *ReadMaster {
	return &ReadMaster{
		resettable: resettable{name: ch.AR.Name()},
		ch:         ch,
	}
}

// Reset drops the traffic in flight and enables the port.
func (p *ReadMaster) Reset() {
	p.ch.AR.Reset()
	p.ch.R.Reset()
	p.ready = true
}

// SendAR tries to issue a read request.
func (p *ReadMaster) SendAR(req AddrPayload) bool {
	p.mustBeReset()
	return p.ch.AR.PushNB(req)
}

// RecvR tries to take a read beat.
func (p *ReadMaster) RecvR() (ReadPayload, bool) {
	p.mustBeReset()
	return p.ch.R.PopNB()
}

// Query issues a read request and waits for every beat of the burst.
func (p *ReadMaster) Query(
	ctx context.Context,
	req AddrPayload,
) ([]ReadPayload, error) {
	p.mustBeReset()

	if err := p.ch.AR.Push(ctx, req); err != nil {
		return nil, err
	}

	var beats []ReadPayload
	for {
		b, err := p.ch.R.Pop(ctx)
		if err != nil {
			return beats, err
		}

		beats = append(beats, b)
		if b.IsLast() {
			return beats, nil
		}
	}
}

// ReadSlave is the slave side of a read interface.
type ReadSlave struct {
	resettable
	ch ReadChannels
}

// NewReadSlave creates the slave side of the read channels.
func NewReadSlave(ch ReadChannels) *ReadSlave {
	return &ReadSlave{
		resettable: resettable{name: ch.R.Name()},
		ch:         ch,
	}
}

// Reset enables the port.
func (p *ReadSlave) Reset() {
	p.ready = true
}

// RecvAR tries to take a read request.
func (p *ReadSlave) RecvAR() (AddrPayload, bool) {
	p.mustBeReset()
	return p.ch.AR.PopNB()
}

// PeekAR returns the pending read request without taking it.
func (p *ReadSlave) PeekAR() (AddrPayload, bool) {
	p.mustBeReset()
	return p.ch.AR.Peek()
}

// SendR tries to return a read beat.
func (p *ReadSlave) SendR(beat ReadPayload) bool {
	p.mustBeReset()
	return p.ch.R.PushNB(beat)
}

// WriteMaster is the master side of a write interface.
type WriteMaster struct {
	resettable
	ch WriteChannels
}

// NewWriteMaster creates the master side of the write channels.
func NewWriteMaster(ch WriteChannels) *WriteMaster {
	return &WriteMaster{
		resettable: resettable{name: ch.AW.Name()},
		ch:         ch,
	}
}

// Reset drops the traffic in flight and enables the port.
func (p *WriteMaster) Reset() {
	p.ch.AW.Reset()
	p.ch.W.Reset()
	p.ch.B.Reset()
	p.ready = true
}

// SendAW tries to issue a write request.
func (p *WriteMaster) SendAW(req AddrPayload) bool {
	p.mustBeReset()
	return p.ch.AW.PushNB(req)
}

// SendW tries to issue a write beat.
func (p *WriteMaster) SendW(beat WritePayload) bool {
	p.mustBeReset()
	return p.ch.W.PushNB(beat)
}

// RecvB tries to take a write response.
func (p *WriteMaster) RecvB() (WRespPayload, bool) {
	p.mustBeReset()
	return p.ch.B.PopNB()
}

// Write issues a write request with its beats and waits for the response.
func (p *WriteMaster) Write(
	ctx context.Context,
	req AddrPayload,
	beats []WritePayload,
) (WRespPayload, error) {
	p.mustBeReset()

	if err := p.ch.AW.Push(ctx, req); err != nil {
		return WRespPayload{}, err
	}

	for _, b := range beats {
		if err := p.ch.W.Push(ctx, b); err != nil {
			return WRespPayload{}, err
		}
	}

	return p.ch.B.Pop(ctx)
}

// WriteBeat is a W beat together with the AW of its burst.
type WriteBeat struct {
	Req   AddrPayload
	Beat  WritePayload
	First bool
}

// WriteSlave is the slave side of a write interface.
type WriteSlave struct {
	resettable
	ch WriteChannels

	held    AddrPayload
	hasHeld bool
	first   bool
}

// NewWriteSlave creates the slave side of the write channels.
func NewWriteSlave(ch WriteChannels) *WriteSlave {
	return &WriteSlave{
		resettable: resettable{name: ch.B.Name()},
		ch:         ch,
	}
}

// Reset forgets the burst in progress and enables the port.
func (p *WriteSlave) Reset() {
	p.hasHeld = false
	p.ready = true
}

// RecvAW tries to take a write request.
func (p *WriteSlave) RecvAW() (AddrPayload, bool) {
	p.mustBeReset()
	return p.ch.AW.PopNB()
}

// PeekAW returns the pending write request without taking it.
func (p *WriteSlave) PeekAW() (AddrPayload, bool) {
	p.mustBeReset()
	return p.ch.AW.Peek()
}

// RecvW tries to take a write beat.
func (p *WriteSlave) RecvW() (WritePayload, bool) {
	p.mustBeReset()
	return p.ch.W.PopNB()
}

// SendB tries to return a write response.
func (p *WriteSlave) SendB(resp WRespPayload) bool {
	p.mustBeReset()
	return p.ch.B.PushNB(resp)
}

// NBWRead reassembles the write channels. It takes the AW of a burst once,
// holds it, and pairs it with every W beat until the last one.
func (p *WriteSlave) NBWRead() (WriteBeat, bool) {
	p.mustBeReset()

	if !p.hasHeld {
		req, ok := p.ch.AW.PopNB()
		if !ok {
			return WriteBeat{}, false
		}

		p.held = req
		p.hasHeld = true
		p.first = true
	}

	beat, ok := p.ch.W.PopNB()
	if !ok {
		return WriteBeat{}, false
	}

	wb := WriteBeat{Req: p.held, Beat: beat, First: p.first}
	p.first = false

	if beat.IsLast() {
		p.hasHeld = false
	}

	return wb, true
}
