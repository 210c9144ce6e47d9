// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"net"
	"time"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fakeBridge is a DatagramSender standing in for one connection to a strip
// bridge.
type fakeBridge struct {
	frames  [][]byte
	maxSize int

	sendErr  error
	closeErr error
	closed   bool
}

func (fb *fakeBridge) SendDatagram(b []byte) error {
	if fb.sendErr != nil {
		return fb.sendErr
	}
	fb.frames = append(fb.frames, append([]byte(nil), b...))
	return nil
}

func (fb *fakeBridge) MaxDatagramSize() int { return fb.maxSize }

func (fb *fakeBridge) Close() error {
	fb.closed = true
	return fb.closeErr
}

// A short DotStar frame: start frame, two LEDs, and the end frame.
var testFrame = []byte{0, 0, 0, 0, 0xFF, 1, 2, 3, 0xFF, 4, 5, 6, 0xFF}

var _ = Describe("ResilientDatagramSender", func() {
	var (
		bridges []*fakeBridge
		dialErr error
		sendErr error
		rds     *ResilientDatagramSender
	)
	BeforeEach(func() {
		bridges, dialErr, sendErr = nil, nil, nil
		rds = &ResilientDatagramSender{
			MaxSizeHint: 512,
			Factory: func() (DatagramSender, error) {
				if dialErr != nil {
					return nil, dialErr
				}
				fb := &fakeBridge{maxSize: 1024, sendErr: sendErr}
				bridges = append(bridges, fb)
				return fb, nil
			},
		}
	})

	It("connects lazily and reuses the connection for later frames", func() {
		Expect(rds.Connects()).To(BeZero())
		Expect(rds.MaxDatagramSize()).To(Equal(512))

		for i := 0; i < 3; i++ {
			Expect(rds.SendDatagram(testFrame)).To(Succeed())
		}
		Expect(rds.MaxDatagramSize()).To(Equal(1024))
		Expect(rds.Close()).To(Succeed())
		Expect(rds.MaxDatagramSize()).To(Equal(512))

		Expect(rds.Connects()).To(Equal(int64(1)))
		Expect(bridges).To(HaveLen(1))
		Expect(bridges[0].frames).To(Equal([][]byte{testFrame, testFrame, testFrame}))
		Expect(bridges[0].closed).To(BeTrue())
	})

	It("redials on the first frame after Close", func() {
		Expect(rds.Connect()).To(Succeed())
		Expect(rds.Close()).To(Succeed())
		Expect(rds.Close()).To(Succeed())

		Expect(rds.SendDatagram(testFrame)).To(Succeed())
		Expect(bridges).To(HaveLen(2))
		Expect(bridges[0].frames).To(BeEmpty())
		Expect(bridges[1].frames).To(Equal([][]byte{testFrame}))
	})

	It("drops a connection whose send fails, without retrying the frame", func() {
		sendErr = errors.New("bridge unreachable")
		Expect(rds.SendDatagram(testFrame)).To(MatchError("bridge unreachable"))
		Expect(bridges[0].closed).To(BeTrue())

		sendErr = nil
		Expect(rds.SendDatagram([]byte{0xAA})).To(Succeed())
		Expect(rds.Connects()).To(Equal(int64(2)))
		Expect(bridges[1].frames).To(Equal([][]byte{{0xAA}}))
	})

	It("reports close errors and still forgets the connection", func() {
		Expect(rds.Connect()).To(Succeed())
		bridges[0].closeErr = errors.New("close failed")

		Expect(rds.Close()).To(MatchError("close failed"))
		Expect(rds.MaxDatagramSize()).To(Equal(512))

		Expect(rds.SendDatagram(testFrame)).To(Succeed())
		Expect(bridges).To(HaveLen(2))
	})

	It("keeps the open connection when a redial fails", func() {
		Expect(rds.Connect()).To(Succeed())

		dialErr = errors.New("no route")
		Expect(rds.Connect()).To(MatchError("no route"))
		Expect(bridges).To(HaveLen(1))
		Expect(bridges[0].closed).To(BeFalse())

		Expect(rds.SendDatagram(testFrame)).To(Succeed())
		Expect(bridges[0].frames).To(Equal([][]byte{testFrame}))
	})

	It("replaces the open connection on a successful redial", func() {
		Expect(rds.Connect()).To(Succeed())
		Expect(rds.Connect()).To(Succeed())

		Expect(bridges).To(HaveLen(2))
		Expect(bridges[0].closed).To(BeTrue())
		Expect(bridges[1].closed).To(BeFalse())
	})

	Context("dialing a UDP bridge", func() {
		var bridge *net.UDPConn
		BeforeEach(func() {
			var err error
			bridge, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
			Expect(err).ToNot(HaveOccurred())
		})
		AfterEach(func() {
			Expect(bridge.Close()).To(Succeed())
		})

		receive := func() []byte {
			buf := make([]byte, 64)
			Expect(bridge.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			amt, err := bridge.Read(buf)
			Expect(err).ToNot(HaveOccurred())
			return buf[:amt]
		}

		It("uses the UDP size limit as its hint and delivers frames across redials", func() {
			opts := UDPOptions{Address: bridge.LocalAddr().String(), BufferSize: 4096}
			rds := opts.ResilientSender()
			defer rds.Close()

			Expect(rds.MaxSizeHint).To(Equal(MaxUDPSize))
			Expect(rds.MaxDatagramSize()).To(Equal(MaxUDPSize))
			Expect(rds.Connects()).To(BeZero())

			Expect(rds.SendDatagram(testFrame)).To(Succeed())
			Expect(receive()).To(Equal(testFrame))

			Expect(rds.Close()).To(Succeed())
			Expect(rds.SendDatagram([]byte{0xFF, 0xFF})).To(Succeed())
			Expect(receive()).To(Equal([]byte{0xFF, 0xFF}))
			Expect(rds.Connects()).To(Equal(int64(2)))
		})

		It("does not dial until a frame is sent", func() {
			opts := UDPOptions{Address: "not an address"}
			rds := opts.ResilientSender()
			Expect(rds.MaxDatagramSize()).To(Equal(MaxUDPSize))
			Expect(rds.SendDatagram(testFrame)).To(MatchError(ContainSubstring("could not resolve")))
			Expect(rds.Connects()).To(BeZero())
		})
	})
})
