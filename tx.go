//go:build tinygo

package irmux

import (
	"machine"
	"time"

	"github.com/sparques/pwm"
)

// NECFrameGap is the idle time left after each frame by SendFrames. NEC
// frames repeat every 108ms; a full frame takes at most ~68ms.
const NECFrameGap = 40 * time.Millisecond

// TxDevice drives an IR LED with a PWM carrier. Marks switch the carrier on,
// spaces switch it off.
type TxDevice struct {
	pin    machine.Pin
	pgroup pwm.Group
	ch     uint8
	duty   uint32

	// FrameGap is how long SendFrames idles between frames.
	FrameGap time.Duration
}

// NewTxDevice configures pin for a carrier of freq Hz, typically Freq38Khz.
func NewTxDevice(pin machine.Pin, freq uint64) (*TxDevice, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	pgroup := pwm.Get(pin)
	pgroup.Configure(machine.PWMConfig{Period: uint64(1e9) / freq})
	ch, err := pgroup.Channel(pin)
	if err != nil {
		return nil, err
	}
	pgroup.Set(ch, 0)
	return &TxDevice{
		pin:      pin,
		pgroup:   pgroup,
		ch:       ch,
		duty:     pgroup.Top() / 2,
		FrameGap: NECFrameGap,
	}, nil
}

func (tx *TxDevice) mark(d time.Duration) {
	tx.pgroup.Set(tx.ch, tx.duty)
	time.Sleep(d)
	tx.pgroup.Set(tx.ch, 0)
}

// SendPair sends one mark followed by one space. A zero space only ends the
// mark.
func (tx *TxDevice) SendPair(pair TimePair) {
	tx.mark(pair[0])
	if pair[1] > 0 {
		time.Sleep(pair[1])
	}
}

func (tx *TxDevice) SendPairs(pairs ...TimePair) {
	for _, p := range pairs {
		tx.SendPair(p)
	}
}

func (tx *TxDevice) SendFrame(fm FrameMarshaller) {
	tx.SendPairs(fm.MarshalFrame()...)
}

// SendFrames sends each frame followed by FrameGap of silence.
func (tx *TxDevice) SendFrames(fms ...FrameMarshaller) {
	for _, fm := range fms {
		tx.SendFrame(fm)
		time.Sleep(tx.FrameGap)
	}
}
