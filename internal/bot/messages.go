package bot

const (
	textWelcome = "Welcome! I am a simple task bot.\n" +
		"Use /add <task> to add tasks."
	textHello = "Hello! How can I help?"
	textHelp  = "Commands:\n" +
		"/add <task> - add a task\n" +
		"/list - show your tasks\n" +
		"/done <n> - mark task n as completed\n" +
		"/delete <n> - delete task n\n" +
		"/clear - delete all tasks\n" +
		"/categories [add|remove] <name> - manage categories"
	textUnknown = "Unknown command. Use /help to see what I can do."

	textNoCategories    = "You have no categories. Add one with /categories add <name>"
	textCategoriesTitle = "Your categories:\n"
	textCategoriesUsage = "Use: /categories [add|remove] <name>"
	fmtCategoryExists   = "Category '%s' already exists"
	fmtCategoryAdded    = "Category '%s' added"
	fmtCategoryNotFound = "Category '%s' not found"
	fmtCategoryProtect  = "The '%s' category cannot be removed"
	fmtCategoryInUse    = "Cannot remove '%s' because tasks use it"
	fmtCategoryRemoved  = "Category '%s' removed"
	textCategoryTooLong = "The category name is too long, please shorten it"

	textAddUsage   = "Specify a task name after /add\nExample: /add Buy milk"
	textAddTooLong = "The task name is too long, please shorten it"

	fmtNumberMissing = "Specify a task number after /%s"
	fmtNumberInvalid = "Specify a valid task number (an integer) after /%s"
	fmtDoneReply     = "'%s' marked as completed, you have %d tasks"
	fmtDeleteReply   = "'%s' deleted, you have %d tasks"

	textClearDone      = "Task list cleared"
	textClearCancelled = "Clearing cancelled"
	textAlreadyEmpty   = "Task list is already empty"
	textAckCleared     = "Cleared"
	textAckCancelled   = "Cancelled"

	fmtAckCompleted = "'%s' marked as completed"
	fmtAckDeleted   = "'%s' deleted"
	fmtTaskAdded    = "'%s' added to [%s, %s], you have %d tasks"
	fmtAckSaved     = "Task '%s' saved"

	textBadTaskNumber   = "Error: invalid task number"
	textCategoryError   = "Error selecting category"
	textAddTaskError    = "Error adding task"
	textUnknownCallback = "Error: unknown action"
)
