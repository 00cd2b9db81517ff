package main

import "github.com/meysamhadeli/codaiscan/cmd"

func main() {
	cmd.Execute()
}
