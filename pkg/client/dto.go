package client

import (
	"time"

	"github.com/movelearn/tutor/pkg/types"
)

type LoginRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type TokenInfo struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type CourseType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Course struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Image                string      `json:"image,omitempty"`
	Badge                string      `json:"badge,omitempty"`
	Price                float64     `json:"price"`
	FinishReward         float64     `json:"finishReward"`
	TypeID               string      `json:"typeId,omitempty"`
	Type                 *CourseType `json:"type,omitempty"`
	CourseLength         int         `json:"courseLength,omitempty"`
	UserProgressLength   int         `json:"userProgressLength,omitempty"`
	IsBought             bool        `json:"isBought,omitempty"`
	UserBrought          bool        `json:"userBrought,omitempty"`
	CertificateIssued    bool        `json:"certificateIssued,omitempty"`
	Chapters             []Chapter   `json:"chapters,omitempty"`
	TotalChapterLength   int         `json:"totalChapterLength,omitempty"`
	LearnedChapterLength int         `json:"learnedChapterLength,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Bought reports whether the current user owns the course. The backend sets
// either flag depending on the endpoint.
func (c *Course) Bought() bool {
	return c.IsBought || c.UserBrought
}

// Learned returns the completed and total chapter counts.
func (c *Course) Learned() (done, total int) {
	done = c.LearnedChapterLength
	if done == 0 {
		done = c.UserProgressLength
	}
	total = c.TotalChapterLength
	if total == 0 {
		total = len(c.Chapters)
	}
	return done, total
}

type CourseDetail struct {
	Course
	UserProgress []string `json:"userProgress,omitempty"`
	IsFinished   bool     `json:"isFinished,omitempty"`
}

// CheckpointOptions is the question payload of a checkpoint.
type CheckpointOptions struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options,omitempty"`
}

type Checkpoint struct {
	ID        string               `json:"id"`
	ChapterID string               `json:"chapterId"`
	Type      types.CheckpointType `json:"type"`
	Options   *CheckpointOptions   `json:"options"`
	BaseCode  string               `json:"baseCode,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type Chapter struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Content       string        `json:"content,omitempty"`
	Order         int           `json:"order"`
	CourseID      string        `json:"courseId"`
	Course        *Course       `json:"course,omitempty"`
	NextChapterID string        `json:"nextChapterId,omitempty"`
	Type          string        `json:"type,omitempty"`
	Progress      *UserProgress `json:"progress,omitempty"`
	Checkpoints   []Checkpoint  `json:"checkPoints,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type UserProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	CourseID    string     `json:"courseId"`
	ChapterID   string     `json:"chapterId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Chapter     *Chapter   `json:"chapter,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type UpdateProgressRequest struct {
	CourseID  string `json:"courseId"`
	ChapterID string `json:"chapterId"`
}

type CommitRequest struct {
	Content string `json:"content"`
}

// CommitResult is the grading of a submitted answer. The backend has used
// both spellings of each field.
type CommitResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	Correct       bool   `json:"correct"`
	Msg           string `json:"msg"`
	Message       string `json:"message"`
	Output        string `json:"output"`
	CompileOutput string `json:"compileOutput"`
}

// Passed reports whether the answer was accepted.
func (r *CommitResult) Passed() bool {
	return r != nil && (r.IsCorrect || r.Correct)
}

// Text returns the grader message.
func (r *CommitResult) Text() string {
	if r == nil {
		return ""
	}
	if r.Msg != "" {
		return r.Msg
	}
	return r.Message
}

// CompilerOutput returns the compiler output of a code submission.
func (r *CommitResult) CompilerOutput() string {
	if r == nil {
		return ""
	}
	if r.Output != "" {
		return r.Output
	}
	return r.CompileOutput
}

type CompileRequest struct {
	Code string `json:"code"`
}

type SignRequest struct {
	UserAddress string  `json:"userAddress"`
	CourseID    string  `json:"courseId"`
	Points      float64 `json:"points"`
}

type SignResponse struct {
	Nonce     string   `json:"nonce"`
	PublicKey []string `json:"publicKey"`
}

type UpdateCertificateRequest struct {
	CourseID string `json:"courseId"`
}

type CourseBadge struct {
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	Badge    string `json:"badge"`
	Issued   bool   `json:"issued"`
}

type AssistantQuestionRequest struct {
	Question string `json:"question"`
}

type AssistantErrorRequest struct {
	Question string `json:"question"`
	ErrorMsg string `json:"errorMsg"`
}

type AssistantAnswer struct {
	Content   string `json:"content"`
	SessionID string `json:"sessionId,omitempty"`
	TokenUsed int    `json:"tokenUsed,omitempty"`
}
