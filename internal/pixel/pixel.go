// Package pixel is the host display and keyboard adapter. Drawing is done in
// XOR mode by the core; this package only presents the finished framebuffer
// and reports which keypad keys are held each frame.
package pixel

import (
	"fmt"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"
)

const gridWidth float64 = 64
const gridHeight float64 = 32
const screenWidth float64 = 1024
const screenHeight float64 = 768

// Window embeds a pixelgl window and holds a keymapping of hex keypad
// index -> pixelgl.Button
type Window struct {
	*pixelgl.Window
	KeyMap map[byte]pixelgl.Button
}

// NewWindow handles creating a new pixelgl window config, initializing the
// window, and returning a pointer to a Window with an embedded *pixelgl.Window
func NewWindow(title string) (*Window, error) {
	cfg := pixelgl.WindowConfig{
		Title:  title,
		Bounds: pixel.R(0, 0, screenWidth, screenHeight),
		VSync:  true,
	}
	w, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating new window: %v", err)
	}
	// Classic layout:  1 2 3 C     1 2 3 4
	//                  4 5 6 D  -> Q W E R
	//                  7 8 9 E     A S D F
	//                  A 0 B F     Z X C V
	km := map[byte]pixelgl.Button{
		0x1: pixelgl.Key1, 0x2: pixelgl.Key2,
		0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
		0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW,
		0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
		0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS,
		0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
		0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX,
		0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
	}
	return &Window{
		Window: w,
		KeyMap: km,
	}, nil
}

// KeyState reports the held state of all 16 keypad keys this frame.
func (w *Window) KeyState() [16]bool {
	var keys [16]bool
	for i, key := range w.KeyMap {
		keys[i] = w.Pressed(key)
	}
	return keys
}

// DrawGraphics clears the window and presents the 64x32 framebuffer scaled to
// the window size. Neighboring lit pixels on a row are merged into a single
// rectangle so a solid line costs one shape instead of sixty-four.
func (w *Window) DrawGraphics(gfx [64 * 32]byte) {
	w.Clear(colornames.Black)
	imd := imdraw.New(nil)
	imd.Color = pixel.RGB(1, 1, 1)
	cellW := screenWidth / gridWidth
	cellH := screenHeight / gridHeight

	// framebuffer row 0 is the top of the screen; pixelgl's origin is
	// bottom-left, so rows are placed downward from the window's top edge
	for row := 0; row < int(gridHeight); row++ {
		top := screenHeight - float64(row)*cellH
		runStart := -1
		for col := 0; col <= int(gridWidth); col++ {
			lit := col < int(gridWidth) && gfx[row*int(gridWidth)+col] == 1
			if lit {
				if runStart < 0 {
					runStart = col
				}
				continue
			}
			if runStart >= 0 {
				imd.Push(pixel.V(float64(runStart)*cellW, top-cellH))
				imd.Push(pixel.V(float64(col)*cellW, top))
				imd.Rectangle(0)
				runStart = -1
			}
		}
	}

	imd.Draw(w)
	w.Update()
}
