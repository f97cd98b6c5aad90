package hostinterface

import (
	"github.com/OCAP2/cutscene/internal/dispatcher"
)

// configStruct is the central configuration used by this library
type configStruct struct {
	// version is returned when the host first loads the extension
	version string

	// name is passed as the source of every callback
	name string

	// dispatcher handles command routing
	dispatcher *dispatcher.Dispatcher
}

// Init method initializes the config struct
func (c *configStruct) Init() {
	c.version = "No version set"
	c.name = "cutscene_extension"
}

// SetVersion sets the version string returned by RVExtensionVersion
func SetVersion(version string) {
	Config.version = version
}

// SetExtensionName sets the name reported as the source of callbacks
func SetExtensionName(name string) {
	Config.name = name
}

// SetDispatcher sets the dispatcher for handling commands
func SetDispatcher(d *dispatcher.Dispatcher) {
	Config.dispatcher = d
}

// GetDispatcher returns the configured dispatcher, or nil if not set
func GetDispatcher() *dispatcher.Dispatcher {
	return Config.dispatcher
}
