package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/frame-labeler/internal/cli"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func labelsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Load the model and list the labels it can predict",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cls, err := initClassifier(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cls.Close() }()

			info, err := cls.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}

			switch strings.ToLower(output) {
			case cli.FormatYAML:
				out, err := yaml.Marshal(info)
				if err != nil {
					return fmt.Errorf("failed to encode model info: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			case cli.FormatTable, "":
				cmd.Println(formatModelInfo(info))
				return nil
			default:
				return fmt.Errorf("unsupported output format %q (want table or yaml)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", cli.FormatTable, "output format (table, yaml)")
	return cmd
}

func formatModelInfo(info model.ModelInfo) string {
	var b strings.Builder
	for i, label := range info.Labels {
		fmt.Fprintf(&b, "%3d  %s\n", i, label)
	}

	title := info.Name
	if info.Version != "" {
		title += " v" + info.Version
	}
	return cli.RenderBox(title, strings.TrimRight(b.String(), "\n")) + "\n" +
		cli.FormatSuccess(fmt.Sprintf("%d labels", len(info.Labels)))
}
