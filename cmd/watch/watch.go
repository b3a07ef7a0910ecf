/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package watch provides the watch command for mach.
package watch

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"bennypowers.dev/mach/internal/cli"
	"bennypowers.dev/mach/watch"
)

// Cmd is the watch cobra command that rebuilds instruments as their
// sources change.
var Cmd = &cobra.Command{
	Use:   "watch",
	Short: "Build instruments and rebuild them on change",
	Long: `Build every configured instrument, then watch the files each build
consumed and rebuild on change. Compile errors are logged and watching
continues; fix the file and save to rebuild.

Instruments whose first build fails are not watched.`,
	Example: `  # Watch everything in mach.config.yaml
  mach watch

  # Watch only the PFD, with sourcemaps
  mach watch -f PFD -u`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	project, err := cli.LoadProject()
	if err != nil {
		return err
	}
	log := project.Logger(cmd.ErrOrStderr())
	builder, err := project.Builder(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stderr := cmd.ErrOrStderr()
	reportErr := func(err error) {
		fmt.Fprintf(stderr, "watch: %v\n", err)
	}
	coordinator := watch.NewCoordinator(builder, log,
		func() (watch.FileWatcher, error) {
			w, err := watch.NewFSWatcher(watch.WithErrorHandler(reportErr))
			if err != nil {
				return nil, err
			}
			return w, nil
		},
		watch.WithWatchErrors(reportErr),
	)

	var wg sync.WaitGroup
	for _, inst := range project.Instruments {
		wg.Go(func() {
			coordinator.WatchModule(ctx, inst, false)
		})
	}
	wg.Wait()

	if len(coordinator.Watching()) == 0 {
		return errors.Join(errors.New("no instrument built successfully; nothing to watch"), coordinator.Close())
	}
	fmt.Fprintln(stderr, "Watching for changes. Press Ctrl+C to stop.")

	<-ctx.Done()
	return coordinator.Close()
}
