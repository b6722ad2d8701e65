// Package camera provides a 2D camera system for viewport control over the
// settlement world: pan and zoom with the viewport clamped to the world's
// fixed bounds (spec's world is bounded, not wrapping, unlike the teacher's
// toroidal ecosystem world — see DESIGN.md for what that drops).
package camera

// Camera controls the viewport into the simulation world.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions (camera position is clamped within these)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world with 1:1 zoom.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	minZoomX := viewportW / worldW
	minZoomY := viewportH / worldH
	minZoom := minZoomX
	if minZoomY > minZoom {
		minZoom = minZoomY
	}

	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   minZoom,
		MaxZoom:   4.0,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := wx - c.X
	dy := wy - c.Y
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	return c.X + dx, c.Y + dy
}

// IsVisible returns true if a circle at (wx, wy) with given radius could be
// visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	dx := wx - c.X
	dy := wy - c.Y
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(dx) <= halfW && absf(dy) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	minZoomX := viewportW / c.WorldW
	minZoomY := viewportH / c.WorldH
	c.MinZoom = minZoomX
	if minZoomY > c.MinZoom {
		c.MinZoom = minZoomY
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.clampPosition()
}

// Pan moves the camera by the given delta in screen pixels, clamped so the
// viewport never shows past the world edge.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampPosition()
}

// SetZoom sets the zoom level, clamped to min/max, and re-clamps position
// since a lower zoom shrinks the range of valid camera centers.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clampPosition keeps the camera center within the world bounds, accounting
// for the current viewport half-extent so the view never shows past an edge
// unless the world itself is smaller than the viewport.
func (c *Camera) clampPosition() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	if halfW*2 >= c.WorldW {
		c.X = c.WorldW / 2
	} else {
		c.X = clamp(c.X, halfW, c.WorldW-halfW)
	}
	if halfH*2 >= c.WorldH {
		c.Y = c.WorldH / 2
	} else {
		c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
	}
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
