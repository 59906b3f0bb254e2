package player

// HandleKey translates a keyboard shortcut into a transport action. Keys
// pressed while focus sits in a text input are ignored wholesale so typing
// never drives the player.
func (c *Controller) HandleKey(key string, typing bool) {
	if typing {
		return
	}

	switch key {
	case " ", "k":
		c.TogglePlay()
	case "ArrowRight", "l":
		c.Skip(skipSeconds)
	case "ArrowLeft", "j":
		c.Skip(-skipSeconds)
	case "f":
		c.ToggleFullscreen()
	case "m":
		c.ToggleMute()
	case "Escape":
		// Escape leaves fullscreen first; a second press closes the player.
		if c.State().Fullscreen {
			c.ToggleFullscreen()
		} else {
			c.Close()
		}
	}
}
