package control

import "github.com/gogpu/splatview"

// Settings is the caller-owned configuration of a Controller.
type Settings struct {
	DesiredRate float32
	Driver      splatview.Driver

	LightOverlay    bool
	ProgressOverlay bool
}

// Settings returns the current configuration.
func (c *Controller) Settings() Settings {
	return Settings{
		DesiredRate:     c.rate,
		Driver:          c.driver,
		LightOverlay:    c.light.state != OverlayNever,
		ProgressOverlay: c.progress.state != OverlayNever,
	}
}

// Apply changes whatever differs from the current configuration. The rate
// is validated before anything changes.
func (c *Controller) Apply(s Settings) error {
	if s.DesiredRate <= 0 {
		return ErrInvalidRate
	}
	cur := c.Settings()
	if s.Driver != cur.Driver {
		if !s.Driver.Valid() {
			return splatview.ErrUnknownDriver
		}
		c.SetDriver(s.Driver)
	}
	if s.DesiredRate != cur.DesiredRate {
		if err := c.SetDesiredRate(s.DesiredRate); err != nil {
			return err
		}
	}
	if s.LightOverlay != cur.LightOverlay || s.ProgressOverlay != cur.ProgressOverlay {
		c.SetOverlays(s.LightOverlay, s.ProgressOverlay)
	}
	return nil
}
