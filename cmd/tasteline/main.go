// Command tasteline runs the temporal preference analytics service and
// its companion CLI tools.
package main

func main() {
	Execute()
}
