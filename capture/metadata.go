// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"math"
	"time"

	"github.com/danjacques/golightpaint/lightpaint"
	"github.com/danjacques/golightpaint/pixel"

	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/pkg/errors"
)

// Metadata describes the image and painter settings behind a capture.
type Metadata struct {
	// Name is a display name for the capture, typically the image file name.
	Name string

	// Width and Height are the painted image's dimensions. Height is also the
	// number of LEDs in each recorded frame.
	Width  int
	Height int

	Gamma        [3]float64
	RequestedMax [3]uint8
	EffectiveMax [3]uint8
	Scale        float64

	Order        pixel.Order
	VerticalFlip bool

	// Created is the time when the capture was created.
	Created time.Time
}

// MetadataFor builds Metadata describing a Painter built with cfg.
func MetadataFor(name string, cfg *lightpaint.Config, p *lightpaint.Painter) *Metadata {
	st := p.Stats()
	return &Metadata{
		Name:         name,
		Width:        p.Width(),
		Height:       p.Height(),
		Gamma:        cfg.Gamma,
		RequestedMax: st.RequestedMax,
		EffectiveMax: st.EffectiveMax,
		Scale:        st.Scale,
		Order:        p.Order(),
		VerticalFlip: p.VerticalFlip(),
	}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func numberListValue(vs ...float64) *structpb.Value {
	lv := structpb.ListValue{Values: make([]*structpb.Value, len(vs))}
	for i, v := range vs {
		lv.Values[i] = numberValue(v)
	}
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &lv}}
}

func channelListValue(v [3]uint8) *structpb.Value {
	return numberListValue(float64(v[0]), float64(v[1]), float64(v[2]))
}

func (md *Metadata) toProto() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"name":          {Kind: &structpb.Value_StringValue{StringValue: md.Name}},
			"width":         numberValue(float64(md.Width)),
			"height":        numberValue(float64(md.Height)),
			"gamma":         numberListValue(md.Gamma[:]...),
			"requested_max": channelListValue(md.RequestedMax),
			"effective_max": channelListValue(md.EffectiveMax),
			"scale":         numberValue(md.Scale),
			"order":         {Kind: &structpb.Value_StringValue{StringValue: md.Order.String()}},
			"vertical_flip": {Kind: &structpb.Value_BoolValue{BoolValue: md.VerticalFlip}},
		},
	}
}

// metadataDecoder extracts typed fields from a metadata Struct, retaining the
// first error encountered.
type metadataDecoder struct {
	fields map[string]*structpb.Value
	err    error
}

func (d *metadataDecoder) fail(key, want string) {
	if d.err == nil {
		d.err = errors.Errorf("metadata field %q is missing or not a %s", key, want)
	}
}

func (d *metadataDecoder) number(key string) float64 {
	if v, ok := d.fields[key].GetKind().(*structpb.Value_NumberValue); ok {
		return v.NumberValue
	}
	d.fail(key, "number")
	return 0
}

func (d *metadataDecoder) integer(key string, min, max float64) int {
	v := d.number(key)
	if v != math.Trunc(v) || v < min || v > max {
		d.fail(key, "valid integer")
		return 0
	}
	return int(v)
}

func (d *metadataDecoder) str(key string) string {
	if v, ok := d.fields[key].GetKind().(*structpb.Value_StringValue); ok {
		return v.StringValue
	}
	d.fail(key, "string")
	return ""
}

func (d *metadataDecoder) boolean(key string) bool {
	if v, ok := d.fields[key].GetKind().(*structpb.Value_BoolValue); ok {
		return v.BoolValue
	}
	d.fail(key, "bool")
	return false
}

func (d *metadataDecoder) triple(key string) (out [3]float64) {
	lv, ok := d.fields[key].GetKind().(*structpb.Value_ListValue)
	if !ok || len(lv.ListValue.GetValues()) != 3 {
		d.fail(key, "list of 3 numbers")
		return
	}
	for i, v := range lv.ListValue.Values {
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			d.fail(key, "list of 3 numbers")
			return
		}
		out[i] = nv.NumberValue
	}
	return
}

func (d *metadataDecoder) channels(key string) (out [3]uint8) {
	for i, v := range d.triple(key) {
		if v != math.Trunc(v) || v < 0 || v > 255 {
			d.fail(key, "list of 3 channel values")
			return
		}
		out[i] = uint8(v)
	}
	return
}

func metadataFromProto(s *structpb.Struct) (*Metadata, error) {
	d := metadataDecoder{fields: s.GetFields()}
	md := Metadata{
		Name:         d.str("name"),
		Width:        d.integer("width", 1, math.MaxInt32),
		Height:       d.integer("height", 1, math.MaxInt32),
		Gamma:        d.triple("gamma"),
		RequestedMax: d.channels("requested_max"),
		EffectiveMax: d.channels("effective_max"),
		Scale:        d.number("scale"),
		Order:        pixel.ParseOrder(d.str("order")),
		VerticalFlip: d.boolean("vertical_flip"),
	}
	if d.err != nil {
		return nil, d.err
	}
	return &md, nil
}
