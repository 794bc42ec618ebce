// Command volpop shows a volume popup on every monitor.
package main

func main() {
	Execute()
}
