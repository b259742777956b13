package drive

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/pibotics/go-chaser/internal/config"
	"github.com/pibotics/go-chaser/internal/log"
)

// VESC packet framing.
const (
	vescStartByte  = 0x02
	vescEndByte    = 0x03
	commSetDuty    = 5
	commForwardCAN = 34

	// canSecondMotor is the CAN bus ID of the second (right) motor
	// behind the primary controller.
	canSecondMotor = 1

	// dutyScale converts a [-1,1] duty fraction to the controller's
	// fixed-point representation.
	dutyScale = 100000
)

// VESC drives two motors through a VESC controller on a serial port: the left
// motor directly, the right one forwarded over the CAN bus. Wheel speeds are
// expressed as duty fractions of the configured maximum linear speed.
type VESC struct {
	cfg  config.DriveConfig
	port io.ReadWriteCloser

	mu sync.Mutex
}

// OpenVESC opens the configured serial port.
func OpenVESC(cfg config.DriveConfig) (*VESC, error) {
	if cfg.SerialPort == "" {
		return nil, fmt.Errorf("vesc: no serial port configured")
	}
	port, err := serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("vesc: open %s: %w", cfg.SerialPort, err)
	}
	log.Info("vesc: connected", "port", cfg.SerialPort, "baud", cfg.BaudRate)
	return &VESC{cfg: cfg, port: port}, nil
}

func (v *VESC) Drive(ctx context.Context, linear, angular float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	linear = clamp(linear, -v.cfg.MaxLinearSpeed, v.cfg.MaxLinearSpeed)
	angular = clamp(angular, -v.cfg.MaxAngularSpeed, v.cfg.MaxAngularSpeed)

	left, right := mix(linear, angular, v.cfg.Wheelbase)
	leftDuty := clamp(left/v.cfg.MaxLinearSpeed, -1, 1)
	rightDuty := clamp(right/v.cfg.MaxLinearSpeed, -1, 1)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.setDuty(leftDuty, false); err != nil {
		return fmt.Errorf("vesc: left motor: %w", err)
	}
	if err := v.setDuty(rightDuty, true); err != nil {
		return fmt.Errorf("vesc: right motor: %w", err)
	}
	return nil
}

func (v *VESC) Stop(ctx context.Context) error {
	return v.Drive(ctx, 0, 0)
}

func (v *VESC) Close() error {
	// Leave the motors stopped; the controller holds the last duty
	// otherwise.
	v.mu.Lock()
	v.setDuty(0, false)
	v.setDuty(0, true)
	v.mu.Unlock()
	return v.port.Close()
}

// setDuty sends a SET_DUTY command, optionally forwarded over CAN to the
// second motor. Caller holds the mutex.
func (v *VESC) setDuty(duty float64, forward bool) error {
	payload := make([]byte, 0, 7)
	if forward {
		payload = append(payload, commForwardCAN, canSecondMotor)
	}
	payload = append(payload, commSetDuty)
	payload = binary.BigEndian.AppendUint32(payload, uint32(int32(duty*dutyScale)))

	_, err := v.port.Write(framePacket(payload))
	return err
}

// framePacket wraps a payload in VESC framing: start byte, length, payload,
// CRC16 of the payload, end byte.
func framePacket(payload []byte) []byte {
	pkt := make([]byte, 0, len(payload)+5)
	pkt = append(pkt, vescStartByte, byte(len(payload)))
	pkt = append(pkt, payload...)
	pkt = binary.BigEndian.AppendUint16(pkt, crc16(payload))
	pkt = append(pkt, vescEndByte)
	return pkt
}

// crc16 is the CCITT/XMODEM CRC the VESC firmware checks packets with.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
