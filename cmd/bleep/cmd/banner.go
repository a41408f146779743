package cmd

import (
	"fmt"
	"io"
)

const banner = `
  _     _                
 | |__ | | ___  ___ _ __  
 | '_ \| |/ _ \/ _ \ '_ \ 
 | |_) | |  __/  __/ |_) |
 |_.__/|_|\___|\___| .__/ 
                   |_|    
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Originals privacy lock - Version %s\x1b[0m\n\n", Version)
}
