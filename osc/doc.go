// Copyright 2013 - 2015 Sebastian Ruml <sebastian.ruml@gmail.com>
// Copyright 2021 - 2022 Mendel Greenberg <mendel@chabad360.me>

//Package osc is the OpenSoundControl transport used to talk to scsynth.
//
//This implementation is based on the Open Sound Control 1.0 Specification (http://opensoundcontrol.org/spec-1_0.html).
//
//Features
//
//- Supports OSC messages with the following TypeTags:
//
//	'i' (int32)
//	'f' (float32)
//	's' (string)
//	'b' ([]byte)
//	't' (Timetag)
//	'h' (int64)
//	'd' (float64)
//	'T' (true)
//	'F' (false)
//	'N' (nil)
//
//- Supports OSC bundles, including Timetags
//
//- Address pattern matching and dispatching of received packets.
//
//Packets
//
//OSC Messages: An OSC message consists of an OSC address pattern and zero or more OSC arguments.
//
//OSC Bundles: An OSC Bundle consists of an OSC Timetag, followed by zero or more OSC bundle elements.
//Each bundle element can be another OSC bundle or OSC message.
//
//Usage
//
//scsynth answers on the socket a command was sent from, so a Client both
//sends and listens:
//  client, err := osc.Dial("127.0.0.1:57110")
//  d := &osc.Dispatcher{}
//  d.AddMethodFunc("/done", func(msg *osc.Message) {
//      fmt.Println(msg)
//  })
//  go client.Listen(d)
//  client.Send(osc.NewMessage("/notify", int32(1)))
package osc
