package server

import "github.com/derktes/lirc2broadlink/pulse"

type conversionResponse struct {
	Remotes      remoteCodeMap     `json:"remotes"`
	Errors       map[string]string `json:"errors,omitempty"`
	SkippedLines int               `json:"skippedLines"`
}

type codeResponse struct {
	Remote string      `json:"remote"`
	Button string      `json:"button"`
	Code   string      `json:"code"`
	Repeat uint8       `json:"repeat"`
	Pulses pulse.Train `json:"pulses"`
}

type learnedFrameResponse struct {
	Remote     string `json:"remote"`
	Button     string `json:"button"`
	ProtocolID string `json:"protocolID"`
	Code       string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// conversionEvent is streamed to websocket subscribers for every stored
// button code.
type conversionEvent struct {
	Remote string `json:"remote"`
	Button string `json:"button"`
	Code   string `json:"code"`
	Source string `json:"source"`
}
