/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellPadX   = 8
	cellHeight = 24
	margin     = 10
)

var (
	colorBackground = color.White
	colorHeader     = color.RGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
	colorGrid       = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	colorText       = color.Black
)

// Image renders rows as a PNG table with the same columns as Text.
func Image(rows []Row) ([]byte, error) {
	face := basicfont.Face7x13
	charWidth := face.Advance
	ascent := face.Ascent

	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, Headers)
	for _, r := range rows {
		cells = append(cells, r.Cells())
	}

	colWidths := make([]int, len(Headers))
	for _, row := range cells {
		for i, c := range row {
			if w := utf8.RuneCountInString(c)*charWidth + 2*cellPadX; w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	tableWidth := 0
	for _, w := range colWidths {
		tableWidth += w
	}
	tableHeight := len(cells) * cellHeight

	img := image.NewRGBA(image.Rect(0, 0, tableWidth+2*margin+1, tableHeight+2*margin+1))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(margin, margin, margin+tableWidth, margin+cellHeight),
		image.NewUniform(colorHeader), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(colorText), Face: face}
	textOffset := (cellHeight-face.Height)/2 + ascent

	for ri, row := range cells {
		y := margin + ri*cellHeight
		x := margin
		for ci, c := range row {
			// centre each cell within its column
			textWidth := utf8.RuneCountInString(c) * charWidth
			d.Dot = fixed.P(x+(colWidths[ci]-textWidth)/2, y+textOffset)
			d.DrawString(c)
			x += colWidths[ci]
		}
	}

	for ri := 0; ri <= len(cells); ri++ {
		hline(img, margin, margin+tableWidth, margin+ri*cellHeight)
	}
	x := margin
	for _, w := range colWidths {
		vline(img, x, margin, margin+tableHeight)
		x += w
	}
	vline(img, x, margin, margin+tableHeight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode table image: %w", err)
	}
	return buf.Bytes(), nil
}

func hline(img *image.RGBA, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, colorGrid)
	}
}

func vline(img *image.RGBA, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, colorGrid)
	}
}
