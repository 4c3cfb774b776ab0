// Package cli holds helpers shared by the primitives commands: output
// formatting, a progress bar for timed runs, signal handling, and exit code
// mapping.
//
//	ctx, stop := cli.SetupSignalHandler(context.Background())
//	defer stop()
//
//	format, err := cli.ParseFormat(flagFormat)
//	if err != nil {
//		return err
//	}
//	return cli.NewFormatter(format).FormatTo(os.Stdout, result)
package cli
