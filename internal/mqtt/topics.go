package mqtt

import (
	"strings"

	"github.com/jmylchreest/chrolisd/internal/errors"
)

const (
	setSuffix   = "set"
	statusLevel = "status"
)

// Topics builds the bridge's topic names under a prefix:
//
//	<prefix>/status                      daemon online/offline, retained
//	<prefix>/<device>/<property>         property value, retained
//	<prefix>/<device>/<property>/set     commands from other clients
type Topics struct {
	Prefix string
}

// Status is the retained online/offline topic.
func (t Topics) Status() string {
	return t.Prefix + "/" + statusLevel
}

// Property returns the value topic for a device property.
func (t Topics) Property(device, property string) (string, error) {
	if !validLevel(device) || !validLevel(property) {
		return "", errors.WrapErrorf(ErrInvalidTopic, "%q/%q", device, property)
	}
	return t.Prefix + "/" + device + "/" + property, nil
}

// Command returns the command topic for a device property.
func (t Topics) Command(device, property string) (string, error) {
	topic, err := t.Property(device, property)
	if err != nil {
		return "", err
	}
	return topic + "/" + setSuffix, nil
}

// CommandFilter is the subscription matching every command topic.
func (t Topics) CommandFilter() string {
	return t.Prefix + "/+/+/" + setSuffix
}

// ParseCommand splits a command topic into device and property names.
func (t Topics) ParseCommand(topic string) (device, property string, err error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", "", errors.WrapErrorf(ErrInvalidTopic, "%q outside prefix %q", topic, t.Prefix)
	}
	rest, ok = strings.CutSuffix(rest, "/"+setSuffix)
	if !ok {
		return "", "", errors.WrapErrorf(ErrInvalidTopic, "%q is not a command topic", topic)
	}
	device, property, ok = strings.Cut(rest, "/")
	if !ok || !validLevel(device) || !validLevel(property) {
		return "", "", errors.WrapErrorf(ErrInvalidTopic, "%q", topic)
	}
	return device, property, nil
}

// validLevel reports whether s can be used as a single topic level.
func validLevel(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/+#")
}
