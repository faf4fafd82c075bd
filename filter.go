//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"fmt"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// ContentFilter selects what a stream or screenshot captures. It keeps the
// selected display or window alive on the native side, so it stays valid
// after the ShareableContent it was built from is released.
type ContentFilter struct {
	ref  *bridge.Ref
	desc string
}

// NewDisplayFilter captures display d, minus the excluded windows.
func (s *Session) NewDisplayFilter(d Display, exclude ...Window) (*ContentFilter, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	dh, err := d.view.Handle()
	if err != nil {
		return nil, fmt.Errorf("display filter: %w", err)
	}
	excluded := make([]bridge.Handle, 0, len(exclude))
	for _, w := range exclude {
		wh, err := w.view.Handle()
		if err != nil {
			return nil, fmt.Errorf("display filter: excluded %s: %w", w, err)
		}
		excluded = append(excluded, wh)
	}
	return s.adoptFilter(s.rt.ContentFilterCreateDisplay(dh, excluded), d.String())
}

// NewWindowFilter captures the single window w.
func (s *Session) NewWindowFilter(w Window) (*ContentFilter, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	wh, err := w.view.Handle()
	if err != nil {
		return nil, fmt.Errorf("window filter: %w", err)
	}
	return s.adoptFilter(s.rt.ContentFilterCreateWindow(wh), w.String())
}

func (s *Session) adoptFilter(h bridge.Handle, desc string) (*ContentFilter, error) {
	if h.IsNull() {
		return nil, bridge.NewError(bridge.InvalidParameter, "content filter", "native filter creation failed for "+desc)
	}
	ref, err := bridge.Adopt(s.rt, bridge.KindContentFilter, h)
	if err != nil {
		return nil, err
	}
	return &ContentFilter{ref: ref, desc: desc}, nil
}

func (f *ContentFilter) handle() (bridge.Handle, error) {
	if f == nil {
		return 0, bridge.ErrNullHandle
	}
	return f.ref.Handle()
}

// Release gives the filter back. Streams created from it keep their own
// reference.
func (f *ContentFilter) Release() {
	if f == nil {
		return
	}
	f.ref.Release()
}

func (f *ContentFilter) String() string {
	if f.desc == "" {
		return "filter"
	}
	return "filter(" + f.desc + ")"
}

// StreamSettings is the flat stream configuration.
type StreamSettings = bridge.StreamSettings

// StreamConfiguration is a native stream configuration built from
// StreamSettings.
type StreamConfiguration struct {
	ref      *bridge.Ref
	settings StreamSettings
}

// NewStreamConfiguration validates settings and creates the native
// configuration.
func (s *Session) NewStreamConfiguration(settings StreamSettings) (*StreamConfiguration, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	h := s.rt.StreamConfigurationCreate(settings)
	if h.IsNull() {
		return nil, bridge.NewError(bridge.ConfigurationError, "stream configuration", "native configuration rejected the settings")
	}
	ref, err := bridge.Adopt(s.rt, bridge.KindStreamConfiguration, h)
	if err != nil {
		return nil, err
	}
	return &StreamConfiguration{ref: ref, settings: settings}, nil
}

// DefaultStreamConfiguration creates a configuration from Config.Stream.
func (s *Session) DefaultStreamConfiguration() (*StreamConfiguration, error) {
	return s.NewStreamConfiguration(s.cfg.Stream)
}

// Settings returns the settings c was created with.
func (c *StreamConfiguration) Settings() StreamSettings {
	return c.settings
}

func (c *StreamConfiguration) handle() (bridge.Handle, error) {
	if c == nil {
		return 0, bridge.ErrNullHandle
	}
	return c.ref.Handle()
}

// Release gives the configuration back.
func (c *StreamConfiguration) Release() {
	if c == nil {
		return
	}
	c.ref.Release()
}
