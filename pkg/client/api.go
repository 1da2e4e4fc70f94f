package client

// API groups the platform controllers over one executor.
type API struct {
	Auth       *AuthController
	Course     *CourseController
	Chapter    *ChapterController
	Checkpoint *CheckpointController
	Move       *MoveController
	Progress   *ProgressController
	Contract   *ContractController
	Index      *IndexController
	Assistant  *AssistantController
}

// NewAPI binds every controller to exec.
func NewAPI(exec Executor) *API {
	return &API{
		Auth:       &AuthController{exec: exec},
		Course:     &CourseController{exec: exec},
		Chapter:    &ChapterController{exec: exec},
		Checkpoint: &CheckpointController{exec: exec},
		Move:       &MoveController{exec: exec},
		Progress:   &ProgressController{exec: exec},
		Contract:   &ContractController{exec: exec},
		Index:      &IndexController{exec: exec},
		Assistant:  &AssistantController{exec: exec},
	}
}
