package event

import (
	"net"
)

// Internal
type InternalEvent struct {
	Data interface{}
}

type InternalEventSyncStateData struct {
	State string
}

// Connectivity
type ConnectivityEvent struct {
	Interface string
	Address   net.IP
}

// Buttons
type ButtonId int

const (
	POWER_BUTTON ButtonId = iota
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventDisplaySwitchData struct{}
