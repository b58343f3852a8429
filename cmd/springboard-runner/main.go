// Command springboard-runner deletes apps from iOS home screens through
// WebDriverAgent.
package main

import "github.com/devicelab-dev/springboard-runner/pkg/cli"

func main() {
	cli.Execute()
}
