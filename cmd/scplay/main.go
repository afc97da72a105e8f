// Command scplay plays a YAML score on a running scsynth.
package main

func main() {
	execute()
}
