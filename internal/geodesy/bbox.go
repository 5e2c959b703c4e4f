package geodesy

// BoundingBox is the lng/lat extent of a set of coordinates
type BoundingBox struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// EmptyBoundingBox returns the widest inverted box, which any fold narrows
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{MinLng: 180, MinLat: 90, MaxLng: -180, MaxLat: -90}
}

// Extend returns the box grown to include c
func (b BoundingBox) Extend(c Coordinate) BoundingBox {
	if c.Lng < b.MinLng {
		b.MinLng = c.Lng
	}
	if c.Lng > b.MaxLng {
		b.MaxLng = c.Lng
	}
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
	return b
}

// Union returns the smallest box containing both b and o
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	b.MinLng = min(b.MinLng, o.MinLng)
	b.MinLat = min(b.MinLat, o.MinLat)
	b.MaxLng = max(b.MaxLng, o.MaxLng)
	b.MaxLat = max(b.MaxLat, o.MaxLat)
	return b
}

// BoundingBoxOf folds coords into a bounding box. An empty slice yields
// the inverted EmptyBoundingBox.
func BoundingBoxOf(coords []Coordinate) BoundingBox {
	box := EmptyBoundingBox()
	for _, c := range coords {
		box = box.Extend(c)
	}
	return box
}

// OuterBoundingBox returns the box enclosing every box in boxes, used when
// several paths are shown together
func OuterBoundingBox(boxes []BoundingBox) BoundingBox {
	outer := EmptyBoundingBox()
	for _, b := range boxes {
		outer = outer.Union(b)
	}
	return outer
}
