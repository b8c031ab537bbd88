package protocol

// Button is one selectable cell of an inline keyboard. Data is the opaque
// payload echoed back by the transport when the button is pressed.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Keyboard is a transport-neutral inline keyboard attached to a message.
type Keyboard struct {
	Rows [][]Button `json:"rows"`
}

// Menu is a persistent reply keyboard: each entry is sent back as plain text.
type Menu struct {
	Rows [][]string `json:"rows"`
}
