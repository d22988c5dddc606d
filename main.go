package main

import (
	"github.com/chipvm/chipvm/cmd"
	"github.com/faiface/pixel/pixelgl"
)

func main() {
	// pixelgl needs access to the main thread, so the whole command tree
	// runs inside its run callback
	pixelgl.Run(cmd.Execute)
}
