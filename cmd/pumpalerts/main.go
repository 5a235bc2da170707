package main

import "pump-alerts/internal/cli"

func main() {
	cli.Execute()
}
