// Command create-placeholders draws a labelled stand-in image for every car
// in stats.json into the img folder next to the executable.
package main

import (
	"os"

	"github.com/luinbytes/car-images/app"
	"github.com/luinbytes/car-images/report"
)

func main() {
	os.Exit(app.Main(report.Placeholder, os.Args[1:]))
}
