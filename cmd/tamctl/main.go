// tamctl is a small terminal frontend for the tamclient library. It reads
// credentials from TAM_* environment variables (a .env file is honored) and
// prints intranet data as tab-separated rows.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	tamclient "github.com/opentam/tamclient"
	"github.com/opentam/tamclient/config"
)

var (
	flagFrom    string
	flagTo      string
	flagUser    int
	flagTimeout time.Duration
	flagJSON    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tamctl",
		Short:         "Query the TAM school intranet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "print records as JSON lines")
	root.AddCommand(timetableCmd(), absencesCmd(), classmatesCmd(), teachersCmd(), resourcesCmd())
	return root
}

func newClient() (*tamclient.Client, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	opts := tamclient.Options{
		Username:       cfg.Username,
		Password:       cfg.Password,
		School:         cfg.School,
		BaseURL:        cfg.BaseURL,
		Debug:          cfg.Debug,
		RequestTimeout: cfg.RequestTimeout,
	}
	if cfg.Debug {
		opts.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return tamclient.New(opts)
}

func timetableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Print the timetable for a date window (defaults to the current week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			var opts []tamclient.TimetableOption
			if flagFrom != "" {
				opts = append(opts, tamclient.WithStartDate(flagFrom))
			}
			if flagTo != "" {
				opts = append(opts, tamclient.WithEndDate(flagTo))
			}
			if flagUser != 0 {
				opts = append(opts, tamclient.WithUserID(flagUser))
			}
			if flagTimeout != 0 {
				opts = append(opts, tamclient.WithTimeout(flagTimeout))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for lesson, err := range client.GetTimetable(cmd.Context(), opts...) {
				if err != nil {
					return err
				}
				if flagJSON {
					if err := printJSON(lesson); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\n",
					lesson.LessonDate, lesson.LessonStart, lesson.LessonEnd,
					lesson.CourseName, lesson.TeacherAcronym, lesson.RoomName)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&flagFrom, "from", "", "start date (DD.MM.YY)")
	cmd.Flags().StringVar(&flagTo, "to", "", "end date (DD.MM.YY)")
	cmd.Flags().IntVar(&flagUser, "user", 0, "person id to query (default: the logged-in user)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "request timeout")
	return cmd
}

func absencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "absences",
		Short: "Print the absences of the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for absence, err := range client.GetAbsences(cmd.Context()) {
				if err != nil {
					return err
				}
				if flagJSON {
					if err := printJSON(absence); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					absence.Date, absence.Course, absence.Status, absence.Teacher)
			}
			return w.Flush()
		},
	}
}

func classmatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classmates",
		Short: "Print the members of the logged-in user's class",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for mate, err := range client.GetClassMates(cmd.Context()) {
				if err != nil {
					return err
				}
				if flagJSON {
					if err := printJSON(mate); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%s, %s\t%s\t%s\n",
					mate.Name, mate.FirstName, mate.Class, mate.Email)
			}
			return w.Flush()
		},
	}
}

func teachersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teachers",
		Short: "Print the class teachers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for teacher, err := range client.GetClassTeachers(cmd.Context()) {
				if err != nil {
					return err
				}
				if flagJSON {
					if err := printJSON(teacher); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%s, %s\t%s\t%s\n",
					teacher.Name, teacher.FirstName, teacher.Course, teacher.Email)
			}
			return w.Flush()
		},
	}
}

func resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Print the school's lookup tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			bundle, err := client.GetResources(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(bundle)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
