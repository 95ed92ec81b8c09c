package model

// Константы для кнопок. Привязаны к названиям обработчиков.
// Не следует добавлять/изменять константы без изменения логики в обработчике module_action.
const (
	StartModuleKey    = "module_start"
	PauseModuleKey    = "module_pause"
	ResumeModuleKey   = "module_resume"
	SubmitModuleKey   = "module_submit"
	RestartModuleKey  = "module_restart"
	ConfirmRestartKey = "module_restart_ok"
	RetryLoadKey      = "modules_retry"
)
