package irmux

// Consumer receives decoded frames from a Dispatcher.
type Consumer interface {
	HandleCode(channel int, code uint32)
}

// ConsumerFunc adapts a plain function to a Consumer.
type ConsumerFunc func(channel int, code uint32)

func (f ConsumerFunc) HandleCode(channel int, code uint32) {
	f(channel, code)
}

type multiConsumer []Consumer

func (mc multiConsumer) HandleCode(channel int, code uint32) {
	for i := range mc {
		mc[i].HandleCode(channel, code)
	}
}

// MultiConsumer accepts a list of Consumers and returns an object that also
// implements Consumer. When HandleCode is called against it, it calls
// HandleCode against all the Consumers used to define it, in order.
// E.G.:
//
//	pub := mqttsink.New(client, "ir/codes")
//	d := irmux.NewDispatcher(bank, irmux.MultiConsumer(pub, sequencer))
func MultiConsumer(cs ...Consumer) Consumer {
	return multiConsumer(cs)
}
