package commands

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/chapter"
	"github.com/movelearn/tutor/pkg/client"
)

var (
	errNotLoggedIn      = errors.New("请先登录")
	errNotBought        = errors.New("尚未购买该课程")
	errCourseUnfinished = errors.New("课程尚未完成")
)

func newCoursesCmd(a *app) *cobra.Command {
	var typeID string
	var mine bool
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var resp *client.Response[[]client.Course]
			if mine {
				resp, err = platform.Course.Private(ctx)
			} else {
				if types, err := platform.Course.Types(ctx); err != nil {
					a.log.Warn("failed to load course types", "error", err)
				} else {
					names := []string{"全部"}
					for _, t := range types.Data {
						names = append(names, fmt.Sprintf("%s(%s)", t.Name, t.ID))
					}
					fmt.Fprintln(out, styleSubtitle.Render("分类: "+strings.Join(names, ", ")))
				}
				resp, err = platform.Course.All(ctx, typeID)
			}
			if err != nil {
				return fmt.Errorf("list courses: %w", err)
			}

			if len(resp.Data) == 0 {
				fmt.Fprintln(out, "暂无课程")
				return nil
			}
			for _, c := range resp.Data {
				fmt.Fprintln(out, courseLine(&c))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeID, "type", "", "Only list courses of this type id")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only list bought courses")
	return cmd
}

func courseLine(c *client.Course) string {
	line := fmt.Sprintf("%s  %s  %.0f M2L", c.ID, styleTitle.Render(c.Title), c.Price)
	if c.Bought() {
		done, total := c.Learned()
		line += styleSuccess.Render(fmt.Sprintf("  已购买 %d/%d", done, total))
	}
	return line
}

func newCourseCmd(a *app) *cobra.Command {
	var buy bool
	cmd := &cobra.Command{
		Use:   "course <course-id>",
		Short: "Show a course with its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if buy {
				resp, err := platform.Course.Buy(ctx, id)
				if err != nil {
					return fmt.Errorf("buy course: %w", err)
				}
				if !resp.Success {
					return fmt.Errorf("buy course: %s", resp.Message)
				}
				fmt.Fprintln(out, styleSuccess.Render("购买成功！"))
			}

			resp, err := platform.Course.ByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load course: %w", err)
			}
			course := resp.Data
			printCourse(out, &course)

			if course.Bought() {
				if p, err := platform.Progress.Get(ctx, id); err != nil {
					a.log.Warn("failed to load progress", "course", id, "error", err)
				} else if p.Data.ChapterID != "" {
					fmt.Fprintf(out, "最近学习: %s\n", p.Data.ChapterID)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&buy, "buy", false, "Buy the course first")
	return cmd
}

func printCourse(w io.Writer, course *client.CourseDetail) {
	fmt.Fprintln(w, styleTitle.Render(course.Title))
	if course.Description != "" {
		fmt.Fprintln(w, styleSubtitle.Render(course.Description))
	}
	fmt.Fprintf(w, "价格: %.0f M2L  完成奖励: %.0f M2L\n", course.Price, course.FinishReward)

	done, total := course.Learned()
	if course.Bought() && total > 0 {
		fmt.Fprintf(w, "已完成: %d/%d 章节 (%d%%)\n", done, total, done*100/total)
	}

	chapters := slices.Clone(course.Chapters)
	slices.SortStableFunc(chapters, func(x, y client.Chapter) int { return cmp.Compare(x.Order, y.Order) })
	for i, ch := range chapters {
		// A chapter opens once the one before it is learned.
		mark := "🔒"
		switch {
		case i < done:
			mark = "✓"
		case i == done:
			mark = "▶"
		}
		fmt.Fprintf(w, "  %s %d. %s (%s)\n", mark, i+1, ch.Title, ch.ID)
	}

	switch {
	case !course.Bought():
		fmt.Fprintln(w, styleSystemMsg.Render("使用 --buy 购买课程"))
	case total > 0 && done >= total && course.CertificateIssued:
		fmt.Fprintln(w, styleSuccess.Render("已获取证书"))
	case total > 0 && done >= total:
		fmt.Fprintln(w, styleSystemMsg.Render("课程已完成，可运行 tutor certificate "+course.ID+" 获取证书"))
	case done < len(chapters):
		fmt.Fprintf(w, "继续学习: tutor learn %s\n", chapters[done].ID)
	}
}

func newBadgesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "List course badges of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			resp, err := platform.Index.CourseBadges(ctx)
			if err != nil {
				return fmt.Errorf("load badges: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(resp.Data) == 0 {
				fmt.Fprintln(out, "暂无徽章")
				return nil
			}
			for _, b := range resp.Data {
				status := styleSubtitle.Render("未获得")
				if b.Issued {
					status = styleSuccess.Render("已获得")
				}
				fmt.Fprintf(out, "🏅 %s (%s) %s\n", b.Title, b.CourseID, status)
			}
			return nil
		},
	}
}

// The certificate is minted by the wallet: the first run fetches the signed
// nonce for the mint transaction, --minted reports the confirmed mint.
func newCertificateCmd(a *app) *cobra.Command {
	var minted bool
	cmd := &cobra.Command{
		Use:   "certificate <course-id>",
		Short: "Request the completion certificate of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.LoadAuth(ctx)
			if err != nil {
				return err
			}
			if !rec.IsLoggedIn || rec.WalletAddress == "" {
				return errNotLoggedIn
			}
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			resp, err := platform.Course.ByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load course: %w", err)
			}
			course := resp.Data
			if !course.Bought() {
				return errNotBought
			}
			if done, total := course.Learned(); total == 0 || done < total {
				return fmt.Errorf("%w (%d/%d)", errCourseUnfinished, done, total)
			}
			if course.CertificateIssued {
				fmt.Fprintln(out, styleSuccess.Render("已获取证书"))
				return nil
			}

			if minted {
				upd, err := platform.Contract.UpdateCertificate(ctx, id)
				if err != nil {
					return fmt.Errorf("update certificate: %w", err)
				}
				// The mint is on chain already; a failed status update is not fatal.
				if !upd.Success {
					a.log.Warn("certificate status update failed", "course", id, "message", upd.Message)
				}
				fmt.Fprintln(out, styleSuccess.Render("证书获取成功！"))
				return nil
			}

			sign, err := platform.Contract.SignNonce(ctx, client.SignRequest{
				UserAddress: rec.WalletAddress,
				CourseID:    id,
				Points:      course.FinishReward,
			})
			if err != nil {
				return fmt.Errorf("sign certificate: %w", err)
			}
			if !sign.Success {
				return fmt.Errorf("sign certificate: %s", sign.Message)
			}
			fmt.Fprintf(out, "nonce: %s\n", sign.Data.Nonce)
			fmt.Fprintf(out, "publicKey: %s\n", strings.Join(sign.Data.PublicKey, ","))
			fmt.Fprintf(out, "请使用钱包提交证书交易，确认后运行: tutor certificate %s --minted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&minted, "minted", false, "Report that the mint transaction was confirmed")
	return cmd
}

func newCompileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.move|->",
		Short: "Compile Move code on the platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var code []byte
			var err error
			if args[0] == "-" {
				code, err = io.ReadAll(cmd.InOrStdin())
			} else {
				code, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			resp, err := platform.Move.Compile(ctx, string(code))
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			out := cmd.OutOrStdout()
			if output := compileOutput(resp.Data); output != "" {
				fmt.Fprintln(out, chapter.CleanCompileOutput(output))
				return nil
			}
			data, err := json.MarshalIndent(resp.Data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
}

func compileOutput(data map[string]any) string {
	for _, key := range []string{"output", "compileOutput"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
